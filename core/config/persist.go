package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SetValue writes one dotted key into a YAML file, keeping everything else
// in the file (comments included) as it was. The file is created if needed.
func SetValue(file, key string, value any) error {
	var doc yaml.Node
	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", file, err)
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: top level is not a mapping", file)
	}

	node := root
	parts := strings.Split(key, ".")
	for i, part := range parts {
		child := lookup(node, part)
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode}
			if i == len(parts)-1 {
				child = &yaml.Node{Kind: yaml.ScalarNode}
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, child)
		}
		if i < len(parts)-1 && child.Kind != yaml.MappingNode {
			return fmt.Errorf("%s: %s is not a mapping", file, strings.Join(parts[:i+1], "."))
		}
		node = child
	}

	var scalar yaml.Node
	if err := scalar.Encode(value); err != nil {
		return err
	}
	node.Kind = scalar.Kind
	node.Tag = scalar.Tag
	node.Value = scalar.Value
	node.Content = nil

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	return os.WriteFile(file, out, 0o644)
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// SaveManageWhitelist persists the whitelist management switch.
func (c *Config) SaveManageWhitelist(manage bool) error {
	if err := SetValue(c.file, "sync.manage_whitelist", manage); err != nil {
		return err
	}
	c.Sync.ManageWhitelist = manage
	return nil
}
