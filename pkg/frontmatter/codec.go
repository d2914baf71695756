// Package frontmatter reads and writes the YAML header of Markdown notes.
//
// A header is present when the first line is exactly "---" and a later line
// is exactly "---". Everything between the two lines is YAML; everything
// after the closing line is the body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bak-libra26/note-relay/pkg/core"
)

const delimiter = "---"

// Note is a document split into its header and body.
type Note struct {
	Metadata *Metadata
	Body     string
}

// Parse splits text into header and body.
//
// Text without a complete header is returned as body with empty metadata.
// A header that is not a valid YAML mapping yields empty metadata, the body
// after the header, and an error wrapping core.ErrMalformedMetadata. The
// returned Note is always usable.
func Parse(text string) (Note, error) {
	block, body, ok := split(text)
	if !ok {
		return Note{Metadata: NewMetadata(), Body: text}, nil
	}

	meta, err := decode(block)
	if err != nil {
		return Note{Metadata: NewMetadata(), Body: body}, fmt.Errorf("%w: %v", core.ErrMalformedMetadata, err)
	}
	return Note{Metadata: meta, Body: body}, nil
}

// String serializes the note back to Markdown with front-matter.
// Notes without fields are written as the bare body, unless the body itself
// opens with a delimiter line; then an empty header is kept in front of it.
func (n Note) String() (string, error) {
	if n.Metadata == nil || n.Metadata.Len() == 0 {
		if opensWithDelimiter(n.Body) {
			return delimiter + "\n" + delimiter + "\n" + n.Body, nil
		}
		return n.Body, nil
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(n.Metadata.doc); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	buf.WriteString(delimiter + "\n")
	buf.WriteString(n.Body)
	return buf.String(), nil
}

// SetField stores value under field and returns the rewritten text.
//
// With overwrite=false an existing non-blank value is kept and text is
// returned unchanged. Writing the value a field already holds is also a
// no-op, so the result is byte-identical. A malformed header is never
// rewritten: the original text is returned together with the parse error.
func SetField(text, field, value string, overwrite bool) (string, bool, error) {
	note, err := Parse(text)
	if err != nil {
		return text, false, err
	}

	current := note.Metadata.Lookup(field)
	if !overwrite && strings.TrimSpace(current) != "" {
		return text, false, nil
	}
	if current == value && note.Metadata.valueNode(field) != nil {
		return text, false, nil
	}

	if err := note.Metadata.Set(field, value); err != nil {
		return text, false, err
	}
	out, err := note.String()
	if err != nil {
		return text, false, err
	}
	return out, true, nil
}

// StripBlock removes one leading header and a single blank line after it.
// Text without a header is returned as is.
func StripBlock(text string) string {
	_, body, ok := split(text)
	if !ok {
		return text
	}
	if strings.HasPrefix(body, "\r\n") {
		return body[2:]
	}
	return strings.TrimPrefix(body, "\n")
}

func opensWithDelimiter(text string) bool {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSuffix(line, "\r") == delimiter
}

// split locates the header lines. block is the YAML between the delimiters,
// body starts after the newline that ends the closing delimiter.
func split(text string) (block, body string, ok bool) {
	end := strings.IndexByte(text, '\n')
	if end < 0 || strings.TrimSuffix(text[:end], "\r") != delimiter {
		return "", "", false
	}

	start := end + 1
	pos := start
	for pos <= len(text) {
		next := strings.IndexByte(text[pos:], '\n')
		lineEnd := len(text)
		if next >= 0 {
			lineEnd = pos + next
		}
		if strings.TrimSuffix(text[pos:lineEnd], "\r") == delimiter {
			bodyStart := lineEnd
			if next >= 0 {
				bodyStart++
			}
			return text[start:pos], text[bodyStart:], true
		}
		if next < 0 {
			break
		}
		pos = lineEnd + 1
	}
	return "", "", false
}

func decode(block string) (*Metadata, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return NewMetadata(), nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return NewMetadata(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("front-matter is not a mapping")
	}

	// Decoding once rejects duplicate keys and unresolvable aliases.
	var fields map[string]any
	if err := root.Decode(&fields); err != nil {
		return nil, err
	}
	return &Metadata{doc: &doc}, nil
}
