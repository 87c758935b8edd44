/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
This is useful for extracting dispatcher and state-store settings from
YAML/JSON structures without verbose type assertions and nil checks.

# Basic Usage

Create a Config from any map and extract values with defaults:

	cfg := config.New(map[string]any{
	    "save_timeout": "2s",
	    "queue_size":   128,
	    "tracing":      true,
	})

	timeout := cfg.Duration("save_timeout", time.Second) // 2s
	queue := cfg.Int("queue_size", 64)                   // 128
	tracing := cfg.Bool("tracing", false)                // true
	missing := cfg.String("state_dir", "/var/lib")       // "/var/lib"

# Type Coercion

Duration handles multiple input types:
  - string: parsed with time.ParseDuration ("30s", "1h30m")
  - int/float64: interpreted as seconds
  - time.Duration: used directly

All methods return the default value if:
  - The key is missing
  - The value cannot be converted to the requested type
  - The conversion would lose precision (e.g., float to int with fraction)

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("hookflow.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

Nested sections are reached with Sub:

	stateCfg := cfg.Sub("state")
	dir := stateCfg.String("dir", "")

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
