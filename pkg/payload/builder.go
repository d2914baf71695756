// Package payload turns a note into the body of a relay upload request.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"mime/multipart"
	"net/textproto"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/frontmatter"
)

// Field names that are not configurable.
const (
	FieldPath         = "file_path"
	FieldAbsolutePath = "file_absolute_path"
	FieldDescriptor   = "metadata"

	// FormField is the multipart part carrying the note.
	FormField = "note"
	// NoteMediaType is the content type of the multipart part.
	NoteMediaType = "text/markdown"
)

// Payload is one upload request body. It lives for a single request.
type Payload struct {
	Mode        core.PayloadMode
	ContentType string
	Body        []byte
	// Identifier is the URL path segment. Empty in JSON mode, where the
	// identifier travels in the body.
	Identifier string
}

// Descriptor tells the relay which field names and flags produced the body.
type Descriptor struct {
	IdentifierField    string `json:"file_id_field_name"`
	NameField          string `json:"file_name_field_name"`
	ContentField       string `json:"file_content_field_name"`
	IncludeFrontMatter bool   `json:"include_front_matter_in_content"`
	SendContent        bool   `json:"send_file_content"`
}

// Builder builds payloads. Locator is optional; when it resolves a note the
// absolute path is included in JSON bodies.
type Builder struct {
	Locator core.Locator
}

// Build is a shorthand for a Builder without a Locator.
func Build(doc core.Document, identifier string, cfg core.SyncConfig) (*Payload, error) {
	return Builder{}.Build(doc, identifier, cfg)
}

// Build assembles the request body for doc in the mode selected by cfg.
// doc is not modified.
func (b Builder) Build(doc core.Document, identifier string, cfg core.SyncConfig) (*Payload, error) {
	switch cfg.Mode {
	case core.ModeMultipart:
		return b.multipart(doc, identifier)
	case core.ModeJSON, "":
		return b.json(doc, identifier, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown payload mode %q", core.ErrPayload, cfg.Mode)
	}
}

func (b Builder) json(doc core.Document, identifier string, cfg core.SyncConfig) (*Payload, error) {
	// A malformed header contributes no fields; the note is still sent.
	note, _ := frontmatter.Parse(doc.Text)

	obj := make(map[string]any, note.Metadata.Len()+6)
	for k, v := range note.Metadata.Map() {
		obj[k] = jsonValue(v)
	}
	obj[cfg.IdentifierField] = identifier
	obj[cfg.NameField] = doc.Name()
	obj[FieldPath] = doc.ID
	if b.Locator != nil {
		if abs, ok := b.Locator.AbsPath(doc.ID); ok {
			obj[FieldAbsolutePath] = abs
		}
	}
	if cfg.SendContent {
		if cfg.IncludeFrontMatter {
			obj[cfg.ContentField] = doc.Text
		} else {
			obj[cfg.ContentField] = frontmatter.StripBlock(doc.Text)
		}
	}
	obj[FieldDescriptor] = Descriptor{
		IdentifierField:    cfg.IdentifierField,
		NameField:          cfg.NameField,
		ContentField:       cfg.ContentField,
		IncludeFrontMatter: cfg.IncludeFrontMatter,
		SendContent:        cfg.SendContent,
	}

	body, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPayload, err)
	}
	return &Payload{
		Mode:        core.ModeJSON,
		ContentType: "application/json",
		Body:        body,
	}, nil
}

func (b Builder) multipart(doc core.Document, identifier string) (*Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     FormField,
		"filename": doc.Name(),
	}))
	header.Set("Content-Type", NoteMediaType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%w: form part: %v", core.ErrPayload, err)
	}
	if _, err := part.Write([]byte(doc.Text)); err != nil {
		return nil, fmt.Errorf("%w: form part: %v", core.ErrPayload, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: close form: %v", core.ErrPayload, err)
	}

	return &Payload{
		Mode:        core.ModeMultipart,
		ContentType: w.FormDataContentType(),
		Body:        buf.Bytes(),
		Identifier:  identifier,
	}, nil
}

// jsonValue converts what encoding/json cannot marshal: YAML mappings with
// non-string keys and non-finite floats, which are sent as their YAML text.
func jsonValue(v any) any {
	switch t := v.(type) {
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonValue(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonValue(val)
		}
		return out
	default:
		return v
	}
}

func finite(f float64) any {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return f
	}
}
