package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadAliases merges the YAML alias file with the inline [aliases] table.
// Keys are uppercased so lookups are case-insensitive; inline entries win
// over file entries with the same key. A missing file is not an error.
func (c *Config) LoadAliases() (map[string]string, error) {
	merged := make(map[string]string)

	if path := strings.TrimSpace(c.Paths.AliasFile); path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			var fromFile map[string]string
			if err := yaml.Unmarshal(raw, &fromFile); err != nil {
				return nil, fmt.Errorf("parse alias file %s: %w", path, err)
			}
			for key, value := range fromFile {
				addAlias(merged, key, value)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read alias file %s: %w", path, err)
		}
	}

	for key, value := range c.Aliases {
		addAlias(merged, key, value)
	}
	return merged, nil
}

// WriteAliases stores an alias table as YAML with sorted keys.
func WriteAliases(path string, aliases map[string]string) error {
	keys := make([]string, 0, len(aliases))
	for key := range aliases {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range keys {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: aliases[key], Style: yaml.DoubleQuotedStyle},
		)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode aliases: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write alias file: %w", err)
	}
	return nil
}

func addAlias(dst map[string]string, key, value string) {
	k := strings.ToUpper(strings.TrimSpace(key))
	v := strings.TrimSpace(value)
	if k == "" || v == "" {
		return
	}
	dst[k] = v
}
