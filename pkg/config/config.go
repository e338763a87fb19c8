package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration at the given path into conf.
//
// Unknown fields are rejected to catch typos in the configuration.
//
// If expandEnv is set, environment variable references in the file are
// expanded before parsing. References have form $VAR or ${VAR}, with an
// optional default given as ${VAR:default} used when VAR is undefined.
func Load(path string, conf interface{}, expandEnv bool) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %s: %w", path, err)
	}

	if expandEnv {
		buf = []byte(os.Expand(string(buf), expandVar))
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)

	if err := dec.Decode(conf); err != nil {
		return fmt.Errorf("parse config: %s: %w", path, err)
	}

	return nil
}

func expandVar(ref string) string {
	name, def, _ := strings.Cut(ref, ":")
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}
