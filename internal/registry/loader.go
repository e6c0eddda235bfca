package registry

import (
	"bytes"
	"io"
	"os"

	"wakectl/internal/errors"

	"gopkg.in/yaml.v3"
)

// Load decodes a YAML or JSON registry document and validates it. Mapping
// order in the document becomes service declaration order.
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, "Failed to read registry", err)
	}
	return LoadBytes(data)
}

// LoadBytes is Load for an in-memory document
func LoadBytes(data []byte) (*Registry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.RegistryValidation("", "registry document is empty")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.ConfigParseError(err)
	}

	tree, err := FromNode(&node)
	if err != nil {
		return nil, errors.ConfigParseError(err)
	}

	return Parse(tree)
}

// LoadFile reads and validates the registry stored at path
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(errors.ErrConfigParse, "Failed to read registry", err)
	}

	reg, err := LoadBytes(data)
	if err != nil {
		return nil, err
	}
	reg.source = path
	return reg, nil
}
