package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Routing Errors (R001-R099)
	// ============================================

	"R001": {
		Category: CategoryRouting,
		Message:  "Router not started",
		Detail:   "Navigation and matching need a started router. Call Start before Push, Replace or Match.",
	},
	"R002": {
		Category: CategoryRouting,
		Message:  "Duplicate route name",
		Detail:   "Two active routes share the same dotted full name, so name based navigation would be ambiguous.",
	},
	"R003": {
		Category: CategoryRouting,
		Message:  "Unknown route name",
		Detail:   "No route in the tree has the requested full name. Full names start with the root name, e.g. root.app.detail.",
	},
	"R004": {
		Category: CategoryRouting,
		Message:  "Invalid path template",
		Detail:   "A route path template could not be compiled.",
	},
	"R005": {
		Category: CategoryRouting,
		Message:  "No location",
		Detail:   "The routing session was created without a location to follow.",
	},
	"R006": {
		Category: CategoryRouting,
		Message:  "Invalid navigation path",
		Detail:   "Navigation paths must be relative to the application root and must not contain backslashes, NUL bytes or malformed escapes.",
	},
	"R007": {
		Category: CategoryRouting,
		Message:  "Invalid route parameters",
		Detail:   "The parameters do not fit the route's path template.",
	},

	// ============================================
	// Config Errors (R100-R199)
	// ============================================

	"R101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "routerd looks for routerd.json in the working directory unless --config is given.",
	},
	"R102": {
		Category: CategoryConfig,
		Message:  "Invalid routerd.json",
		Detail:   "The routerd.json configuration file is malformed.",
	},
	"R103": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The configured port must be between 1 and 65535.",
	},
	"R104": {
		Category: CategoryConfig,
		Message:  "Invalid HTTP path",
		Detail:   "Configured HTTP paths must start with a slash.",
	},
	"R105": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "Supported log levels are debug, info, warn and error.",
	},
	"R106": {
		Category: CategoryConfig,
		Message:  "Invalid log format",
		Detail:   "Supported log formats are text and json.",
	},
	"R107": {
		Category: CategoryConfig,
		Message:  "Missing required configuration",
		Detail:   "A required configuration value is not set.",
	},
	"R108": {
		Category: CategoryConfig,
		Message:  "Invalid tracing configuration",
		Detail:   "Supported trace exporters are stdout and otlp, sampled with a ratio between 0 and 1.",
	},

	// ============================================
	// Manifest Errors (R200-R299)
	// ============================================

	"R201": {
		Category: CategoryManifest,
		Message:  "Manifest not found",
		Detail:   "The route manifest could not be read from the configured source.",
	},
	"R202": {
		Category: CategoryManifest,
		Message:  "Invalid manifest syntax",
		Detail:   "The route manifest is not valid YAML or JSON.",
	},
	"R203": {
		Category: CategoryManifest,
		Message:  "Invalid manifest",
		Detail:   "The route manifest failed validation.",
	},
	"R204": {
		Category: CategoryManifest,
		Message:  "Duplicate sibling name",
		Detail:   "Two children of the same route have the same name.",
	},
	"R205": {
		Category: CategoryManifest,
		Message:  "Invalid route path",
		Detail:   "A route path or alias in the manifest is not a valid template.",
	},
	"R206": {
		Category: CategoryManifest,
		Message:  "Object storage fetch failed",
		Detail:   "The manifest could not be downloaded from object storage.",
	},
	"R207": {
		Category: CategoryManifest,
		Message:  "Unsupported manifest source",
		Detail:   "Manifest sources are file paths or s3://bucket/key URLs.",
	},

	// ============================================
	// Protocol Errors (R300-R399)
	// ============================================

	"R301": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A WebSocket frame could not be decoded.",
	},
	"R302": {
		Category: CategoryProtocol,
		Message:  "Unknown frame type",
		Detail:   "Clients may send change, back and navigate frames.",
	},
	"R303": {
		Category: CategoryProtocol,
		Message:  "Origin not allowed",
		Detail:   "The WebSocket upgrade came from an origin that is not listed in server.allowedOrigins.",
	},
	"R304": {
		Category: CategoryProtocol,
		Message:  "Navigation failed",
		Detail:   "The requested navigation could not be started.",
	},

	// ============================================
	// CLI Errors (R400-R499)
	// ============================================

	"R401": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
	"R402": {
		Category: CategoryCLI,
		Message:  "No route matched",
		Detail:   "The segment did not resolve to any route of the manifest.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
