// Package config provides configuration parsing for routerd.
//
// The configuration is stored in routerd.json next to the route manifest.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 7070,
//	    "wsPath": "/ws",
//	    "allowedOrigins": ["https://app.example.com"],
//	    "shutdownTimeout": "10s"
//	  },
//	  "manifest": {
//	    "source": "routes.yaml",
//	    "watch": true
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "routerd",
//	    "path": "/metrics"
//	  },
//	  "tracing": {
//	    "enabled": true,
//	    "exporter": "otlp",
//	    "endpoint": "otel-collector:4317",
//	    "insecure": true,
//	    "sampleRatio": 0.1
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "json"
//	  }
//	}
//
// A manifest source of the form s3://bucket/key is fetched from object
// storage using manifest.region, an optional manifest.endpoint for
// S3-compatible stores, and the AWS_* credential environment variables.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
