package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the environment prefix read by Load.
const EnvPrefix = "EVENTROUTER_"

// Load reads the settings file at path, if any, and overlays environment
// variables carrying EnvPrefix.
func Load(path string) (Config, error) {
	base := New(nil)
	if path != "" {
		var err error
		if base, err = FromFile(path); err != nil {
			return Config{}, err
		}
	}
	return Merge(base, FromEnv(EnvPrefix, os.Environ())), nil
}

// FromFile loads configuration from a file, choosing the format by
// extension: .yaml, .yml or .json.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read settings %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("settings %s: unsupported extension %q", path, ext)
	}
}

// FromYAML parses a YAML document into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml settings: %w", err)
	}
	return New(m), nil
}

// FromJSON parses a JSON object into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json settings: %w", err)
	}
	return New(m), nil
}

// FromEnv builds a Config from KEY=value pairs that start with prefix.
// The rest of the name is lowercased and a double underscore opens a
// section, so EVENTROUTER_REDIS__RATE_PER_SEC sets redis.rate_per_sec.
// Values stay strings; the typed accessors parse them.
func FromEnv(prefix string, environ []string) Config {
	root := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(name, prefix)), "__")
		node := root
		for _, part := range path[:len(path)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		if leaf := path[len(path)-1]; leaf != "" {
			node[leaf] = value
		}
	}
	return New(root)
}

// Merge returns base with every key of over applied on top. Sections are
// merged recursively; neither input is modified.
func Merge(base, over Config) Config {
	return New(mergeMaps(base.data, over.data))
}

func mergeMaps(base, over map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any, len(over))
	}
	for k, v := range over {
		bm, bok := asMap(out[k])
		om, ook := asMap(v)
		if bok && ook {
			out[k] = mergeMaps(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}
