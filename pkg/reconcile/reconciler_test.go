package reconcile

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bak-libra26/note-relay/pkg/adapters/memory"
	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/identity"
	"github.com/bak-libra26/note-relay/pkg/relay"
)

const note = "---\ntitle: Daily\nfile_id: old-id # keep\n---\nbody\n"

func jsonResponse(status int, body string) *relay.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json; charset=utf-8")
	return &relay.Response{Status: status, Header: h, Body: []byte(body)}
}

func setup() (*memory.Store, *Reconciler) {
	store := memory.NewStore(map[string]string{"a.md": note})
	return store, New(identity.New(store), nil)
}

func TestReconcile_UpdatesIdentifier(t *testing.T) {
	store, r := setup()

	res, err := r.Reconcile(context.Background(), jsonResponse(200, `{"file_id":"new-id"}`), "a.md", "file_id", true)
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "new-id", res.Identifier)

	text, _ := store.Get("a.md")
	assert.Equal(t, "---\ntitle: Daily\nfile_id: new-id # keep\n---\nbody\n", text)
}

func TestReconcile_SameValueIsByteIdentical(t *testing.T) {
	store, r := setup()

	res, err := r.Reconcile(context.Background(), jsonResponse(200, `{"file_id":"old-id"}`), "a.md", "file_id", true)
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.False(t, res.Skipped)

	text, _ := store.Get("a.md")
	assert.Equal(t, note, text)
	assert.Zero(t, store.Writes())
}

func TestReconcile_Skips(t *testing.T) {
	plain := make(http.Header)
	plain.Set("Content-Type", "text/plain")

	tests := []struct {
		name string
		resp *relay.Response
	}{
		{"non-2xx", jsonResponse(500, `{"file_id":"new-id"}`)},
		{"not json", &relay.Response{Status: 200, Header: plain, Body: []byte(`{"file_id":"new-id"}`)}},
		{"no content type", &relay.Response{Status: 200, Header: http.Header{}, Body: []byte(`{}`)}},
		{"bad json", jsonResponse(200, `{"file_id":`)},
		{"json array", jsonResponse(200, `["new-id"]`)},
		{"missing field", jsonResponse(200, `{"id":"new-id"}`)},
		{"empty field", jsonResponse(200, `{"file_id":"  "}`)},
		{"null field", jsonResponse(200, `{"file_id":null}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, r := setup()
			res, err := r.Reconcile(context.Background(), tt.resp, "a.md", "file_id", true)
			require.NoError(t, err)
			assert.True(t, res.Skipped)
			assert.ErrorIs(t, res.Err(), core.ErrResponseUnparseable)

			text, _ := store.Get("a.md")
			assert.Equal(t, note, text)
		})
	}
}

func TestReconcile_Disabled(t *testing.T) {
	store, r := setup()
	res, err := r.Reconcile(context.Background(), jsonResponse(200, `{"file_id":"new-id"}`), "a.md", "file_id", false)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.NoError(t, res.Err())
	assert.Zero(t, store.Reads())
}

func TestReconcile_NumericIdentifier(t *testing.T) {
	store, r := setup()
	res, err := r.Reconcile(context.Background(), jsonResponse(200, `{"file_id":1234567}`), "a.md", "file_id", true)
	require.NoError(t, err)
	assert.Equal(t, "1234567", res.Identifier)

	text, _ := store.Get("a.md")
	assert.Contains(t, text, `file_id: "1234567"`)
}

func TestReconcile_ReadsCurrentValue(t *testing.T) {
	store, r := setup()
	// The note changed after the upload started; the relay agrees with the new value.
	store.Put("a.md", "---\nfile_id: new-id\n---\nedited\n")

	res, err := r.Reconcile(context.Background(), jsonResponse(200, `{"file_id":"new-id"}`), "a.md", "file_id", true)
	require.NoError(t, err)
	assert.False(t, res.Updated)

	text, _ := store.Get("a.md")
	assert.Equal(t, "---\nfile_id: new-id\n---\nedited\n", text)
}

func TestReconcile_MissingNote(t *testing.T) {
	_, r := setup()
	_, err := r.Reconcile(context.Background(), jsonResponse(200, `{"file_id":"x"}`), "gone.md", "file_id", true)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReconcile_MalformedNote(t *testing.T) {
	bad := "---\nkey: : value\n---\nbody\n"
	store := memory.NewStore(map[string]string{"a.md": bad})
	r := New(identity.New(store), nil)

	res, err := r.Reconcile(context.Background(), jsonResponse(200, `{"file_id":"x"}`), "a.md", "file_id", true)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	text, _ := store.Get("a.md")
	assert.Equal(t, bad, text)
}
