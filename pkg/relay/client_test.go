package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/payload"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base, endpoint, id string
		want               string
	}{
		{"http://h/", "/v1/sync", "abc 1", "http://h/v1/sync/abc%201"},
		{"http://h", "v1/sync", "abc", "http://h/v1/sync/abc"},
		{"http://h//", "/v1/sync/", "abc", "http://h/v1/sync/abc"},
		{"http://h/", "/v1/sync", "", "http://h/v1/sync"},
		{"http://h", "", "x", "http://h/x"},
		{"http://h", "/notes", "a/b", "http://h/notes/a%2Fb"},
	}

	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.endpoint, tt.id); got != tt.want {
			t.Errorf("BuildURL(%q, %q, %q) = %q, want %q", tt.base, tt.endpoint, tt.id, got, tt.want)
		}
	}
}

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name string
		auth core.AuthConfig
		want string
	}{
		{"none", core.AuthConfig{Mode: core.AuthNone, Token: "t"}, ""},
		{"basic", core.AuthConfig{Mode: core.AuthBasic, Username: "u", Password: "p"}, "Basic dTpw"},
		{"basic empty password", core.AuthConfig{Mode: core.AuthBasic, Username: "u"}, ""},
		{"basic empty user", core.AuthConfig{Mode: core.AuthBasic, Password: "p"}, ""},
		{"token", core.AuthConfig{Mode: core.AuthToken, Token: "secret"}, "Bearer secret"},
		{"token missing", core.AuthConfig{Mode: core.AuthToken}, ""},
		{"unknown mode", core.AuthConfig{Mode: "digest", Token: "secret"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AuthHeaders(tt.auth)
			assert.Equal(t, tt.want, h.Get("Authorization"))
			if tt.want == "" {
				assert.Empty(t, h)
			}
		})
	}
}

func TestClient_Send(t *testing.T) {
	var gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"file_id":"srv"}`))
	}))
	defer srv.Close()

	c := NewClient(core.DefaultSyncConfig())
	p := &payload.Payload{Mode: core.ModeJSON, ContentType: "application/json", Body: []byte(`{"a":1}`)}
	headers := AuthHeaders(core.AuthConfig{Mode: core.AuthToken, Token: "tok"})

	resp, err := c.Send(context.Background(), srv.URL+"/sync", p, headers)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "application/json", resp.ContentType())
	assert.JSONEq(t, `{"file_id":"srv"}`, string(resp.Body))

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"a":1}`, gotBody)
}

func TestClient_SendNon2xxIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(core.DefaultSyncConfig(), WithDoer(srv.Client()))
	resp, err := c.Send(context.Background(), srv.URL, &payload.Payload{ContentType: "text/plain"}, nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusForbidden, resp.Status)
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestClient_SendNetworkFailure(t *testing.T) {
	c := NewClient(core.DefaultSyncConfig(), WithDoer(failingDoer{}))
	_, err := c.Send(context.Background(), "http://relay.invalid/sync", &payload.Payload{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)
	assert.Equal(t, core.KindNetwork, core.KindOf(err))
}

func TestClient_SendCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		big := make([]byte, MaxResponseBytes+100)
		_, _ = w.Write(big)
	}))
	defer srv.Close()

	c := NewClient(core.DefaultSyncConfig())
	resp, err := c.Send(context.Background(), srv.URL, &payload.Payload{}, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Body, MaxResponseBytes)
}
