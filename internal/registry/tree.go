package registry

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Value is one node of a decoded configuration tree. It is one of *Map,
// []Value, string, bool, int, float64 or nil.
type Value interface{}

// Map is a mapping that remembers key insertion order. Registry parsing
// walks keys in this order so services keep their declaration order.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap creates an empty ordered map
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores a value, appending the key if it is new
func (m *Map) Set(key string, value Value) *Map {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value stored under key
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys
func (m *Map) Len() int {
	return len(m.keys)
}

// FromNode converts a decoded YAML (or JSON) node into a Value tree.
func FromNode(node *yaml.Node) (Value, error) {
	if node == nil {
		return nil, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return FromNode(node.Content[0])

	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			v, err := FromNode(valueNode)
			if err != nil {
				return nil, err
			}
			m.Set(keyNode.Value, v)
		}
		return m, nil

	case yaml.SequenceNode:
		seq := make([]Value, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := FromNode(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil

	case yaml.AliasNode:
		return FromNode(node.Alias)

	case yaml.ScalarNode:
		var v interface{}
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", node.Line, node.Kind)
	}
}

// FromGo converts plain Go maps and slices, as produced by encoding/json or
// yaml.Unmarshal into interface{}, into a Value tree. Plain maps carry no
// order, so their keys are sorted.
func FromGo(v interface{}) Value {
	switch t := v.(type) {
	case *Map:
		return t
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, FromGo(t[k]))
		}
		return m
	case []interface{}:
		seq := make([]Value, 0, len(t))
		for _, item := range t {
			seq = append(seq, FromGo(item))
		}
		return seq
	case []string:
		seq := make([]Value, 0, len(t))
		for _, item := range t {
			seq = append(seq, item)
		}
		return seq
	default:
		return t
	}
}

// kindOf names the shape of a value for validation messages
func kindOf(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case *Map:
		return "mapping"
	case []Value:
		return "sequence"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
