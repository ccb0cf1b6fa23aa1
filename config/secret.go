package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// redacted replaces a key in --show-config output.
const redacted = "[hidden]"

// APIKey is a mail provider credential. It may be written plain or with a
// !secret tag; either way it never appears in a config dump.
type APIKey struct {
	value string
}

func NewAPIKey(value string) APIKey {
	return APIKey{value: value}
}

// Value is the key as sent to the provider.
func (k APIKey) Value() string {
	return k.value
}

func (k APIKey) IsSet() bool {
	return k.value != ""
}

func (k APIKey) String() string {
	if k.value == "" {
		return ""
	}
	return redacted
}

func (k *APIKey) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: api_key must be a string", node.Line)
	}
	k.value = node.Value
	return nil
}

// MarshalYAML writes a set key as "!secret [hidden]" and an unset one as "".
func (k APIKey) MarshalYAML() (any, error) {
	if !k.IsSet() {
		return "", nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!secret", Value: redacted}, nil
}
