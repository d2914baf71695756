// Package reconcile applies an identifier returned by the relay to the note.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/relay"
)

// FieldWriter is the read-modify-write capability the reconciler needs.
// identity.Manager implements it.
type FieldWriter interface {
	Lookup(ctx context.Context, docID, field string) (string, error)
	SetField(ctx context.Context, docID, field, value string, overwrite bool) (bool, error)
}

// Result describes what Reconcile did.
type Result struct {
	// Identifier is the value the note holds afterwards.
	Identifier string
	Updated    bool
	// Skipped is set when the response could not be used; Reason says why.
	Skipped bool
	Reason  string
}

// Err returns the skip reason as an error wrapping core.ErrResponseUnparseable.
func (r Result) Err() error {
	if !r.Skipped {
		return nil
	}
	return fmt.Errorf("%w: %s", core.ErrResponseUnparseable, r.Reason)
}

// Reconciler overwrites the local identifier with the relay's value.
type Reconciler struct {
	fields FieldWriter
	logger *slog.Logger
}

// New creates a Reconciler. A nil logger means slog.Default().
func New(fields FieldWriter, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{fields: fields, logger: logger}
}

// Reconcile inspects resp and, when enabled, stores the identifier it carries
// under field. Unusable responses are skipped and leave the note untouched;
// only store failures are returned as errors.
func (r *Reconciler) Reconcile(ctx context.Context, resp *relay.Response, docID, field string, enabled bool) (Result, error) {
	if !enabled {
		return Result{}, nil
	}
	if !resp.OK() {
		return skip("response status is not 2xx"), nil
	}
	if !isJSON(resp.ContentType()) {
		return skip("response is not JSON"), nil
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		r.logger.Warn("failed to decode relay response", "id", docID, "error", err)
		return skip("response body is not a JSON object"), nil
	}
	remote := coerce(body[field])
	if remote == "" {
		return skip(fmt.Sprintf("response has no %q", field)), nil
	}

	current, err := r.fields.Lookup(ctx, docID, field)
	if errors.Is(err, core.ErrMalformedMetadata) {
		r.logger.Warn("front-matter is malformed, relay identifier not stored", "id", docID, "error", err)
		return skip("front-matter is malformed"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if remote == strings.TrimSpace(current) {
		return Result{Identifier: current}, nil
	}

	if _, err := r.fields.SetField(ctx, docID, field, remote, true); err != nil {
		return Result{Identifier: current}, err
	}
	r.logger.Info("identifier updated from relay response", "id", docID, "identifier", remote)
	return Result{Identifier: remote, Updated: true}, nil
}

func skip(reason string) Result {
	return Result{Skipped: true, Reason: reason}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// coerce renders a decoded JSON value as a trimmed string. Numbers keep
// their integer form so 42 becomes "42", not "42.0" or "4.2e+01".
func coerce(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
