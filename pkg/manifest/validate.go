package manifest

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/vango-dev/nestroute/internal/errors"
	"github.com/vango-dev/nestroute/pkg/pathpattern"
	"github.com/vango-dev/nestroute/pkg/routepath"
)

// Problem is one validation failure.
type Problem struct {
	Code    string
	Route   *Route
	Message string
}

func (p *Problem) Error() string {
	if name := p.Route.FullName(); name != "" {
		return fmt.Sprintf("%s: route %s: %s", p.Code, name, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Code, p.Message)
}

// RouterdError converts p to a located error for terminal output.
func (p *Problem) RouterdError(source string) *errors.RouterdError {
	rerr := errors.New(p.Code).WithDetail(p.Message)
	if pos := p.Route.Position(); pos.Line > 0 && source != "" {
		rerr.WithLocation(source, pos.Line, pos.Column)
	}
	return rerr
}

// Validate checks every route and returns all problems found as a
// *multierror.Error, or nil.
func (m *Manifest) Validate() error {
	var result *multierror.Error
	add := func(code string, r *Route, format string, args ...any) {
		result = multierror.Append(result, &Problem{Code: code, Route: r, Message: fmt.Sprintf(format, args...)})
	}

	// Unique sibling names without dots keep full names unique.
	var visit func(r *Route, parentTemplate string)
	visit = func(r *Route, parentTemplate string) {
		if strings.ContainsAny(r.Name, ". \t") {
			add("R203", r, "name %q must not contain dots or whitespace", r.Name)
		}

		template := routepath.JoinTemplate(parentTemplate, r.Path)
		if _, err := pathpattern.Compile(template); err != nil {
			add("R205", r, "path %q: %v", template, err)
		}
		for _, a := range r.Aliases {
			alias := routepath.NormalizeAlias(a)
			if _, err := pathpattern.Compile(alias); err != nil {
				add("R205", r, "alias %q: %v", a, err)
			}
		}

		siblings := make(map[string]bool)
		for i, c := range r.Children {
			if c == nil {
				add("R203", r, "child %d is empty", i)
				continue
			}
			if c.Name != "" {
				if siblings[c.Name] {
					add("R204", c, "sibling name %q is declared twice", c.Name)
				}
				siblings[c.Name] = true
			}
			visit(c, template)
		}
	}

	if m.Root == nil {
		add("R203", &Route{}, "manifest has no root route")
		return result.ErrorOrNil()
	}
	visit(m.Root, "")

	if result != nil {
		result.ErrorFormat = formatProblems
	}
	return result.ErrorOrNil()
}

func formatProblems(errs []error) string {
	lines := make([]string, 0, len(errs)+1)
	lines = append(lines, fmt.Sprintf("%d manifest problem(s):", len(errs)))
	for _, err := range errs {
		lines = append(lines, "  * "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// Problems unpacks the result of Validate.
func Problems(err error) []*Problem {
	var out []*Problem
	var merr *multierror.Error
	if !stderrors.As(err, &merr) {
		if p, ok := err.(*Problem); ok {
			out = append(out, p)
		}
		return out
	}
	for _, e := range merr.WrappedErrors() {
		if p, ok := e.(*Problem); ok {
			out = append(out, p)
		}
	}
	return out
}
