package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is the ordered key/value header of a note.
// It keeps the parsed YAML node tree so that untouched fields keep their
// order, comments and quoting when the note is written back.
type Metadata struct {
	doc *yaml.Node
}

// NewMetadata returns an empty header.
func NewMetadata() *Metadata {
	return &Metadata{doc: &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}}
}

func (m *Metadata) mapping() *yaml.Node {
	return m.doc.Content[0]
}

// Len returns the number of fields.
func (m *Metadata) Len() int {
	return len(m.mapping().Content) / 2
}

// Keys returns the field names in document order.
func (m *Metadata) Keys() []string {
	content := m.mapping().Content
	keys := make([]string, 0, len(content)/2)
	for i := 0; i+1 < len(content); i += 2 {
		keys = append(keys, content[i].Value)
	}
	return keys
}

func (m *Metadata) valueNode(key string) *yaml.Node {
	content := m.mapping().Content
	for i := 0; i+1 < len(content); i += 2 {
		if content[i].Value == key {
			return content[i+1]
		}
	}
	return nil
}

// Get decodes the value stored under key.
func (m *Metadata) Get(key string) (any, bool) {
	n := m.valueNode(key)
	if n == nil {
		return nil, false
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Lookup returns the value under key coerced to a string.
// Scalars are returned exactly as written; null and missing fields yield "".
func (m *Metadata) Lookup(key string) string {
	n := m.valueNode(key)
	if n == nil {
		return ""
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.ScalarNode {
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return ""
	}
	return fmt.Sprint(v)
}

// HasValue reports whether key holds a non-blank value.
func (m *Metadata) HasValue(key string) bool {
	return strings.TrimSpace(m.Lookup(key)) != ""
}

// Set stores value under key, replacing the existing value in place or
// appending a new field at the end.
func (m *Metadata) Set(key string, value any) error {
	var vn yaml.Node
	if err := vn.Encode(value); err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}

	mapping := m.mapping()
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			old := mapping.Content[i+1]
			vn.LineComment = old.LineComment
			vn.HeadComment = old.HeadComment
			mapping.Content[i+1] = &vn
			return nil
		}
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	mapping.Content = append(mapping.Content, keyNode, &vn)
	return nil
}

// Map returns a copy of the fields as plain Go values.
func (m *Metadata) Map() map[string]any {
	out := make(map[string]any, m.Len())
	content := m.mapping().Content
	for i := 0; i+1 < len(content); i += 2 {
		var v any
		if err := content[i+1].Decode(&v); err != nil {
			continue
		}
		out[content[i].Value] = v
	}
	return out
}
