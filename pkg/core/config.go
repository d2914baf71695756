package core

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects how requests to the relay are authenticated.
type AuthMode string

const (
	AuthNone  AuthMode = "none"
	AuthBasic AuthMode = "basic"
	AuthToken AuthMode = "token"
)

// PayloadMode selects the shape of the upload request.
type PayloadMode string

const (
	// ModeJSON posts a JSON object to <server><endpoint>.
	ModeJSON PayloadMode = "json"
	// ModeMultipart posts the raw note as a form file to <server><endpoint>/<id>.
	ModeMultipart PayloadMode = "multipart"
)

const (
	DefaultIdentifierField = "file_id"
	DefaultNameField       = "file_name"
	DefaultContentField    = "content"
	DefaultTimeout         = 30 * time.Second
)

// AuthConfig holds the credentials for the selected AuthMode.
type AuthConfig struct {
	Mode     AuthMode
	Username string
	Password string
	Token    string
}

// SyncConfig is the settings snapshot consumed by one sync operation.
// It is passed by value; ExcludePatterns and Extensions must not be mutated after construction.
type SyncConfig struct {
	ServerURL string
	Endpoint  string
	Auth      AuthConfig

	IdentifierField    string
	NameField          string
	ContentField       string
	SendContent        bool
	IncludeFrontMatter bool
	Mode               PayloadMode

	ExcludePatterns []string
	Extensions      []string

	// AcceptServerID lets the relay response overwrite the local identifier.
	AcceptServerID bool
	// AutoSync makes modify events trigger a sync.
	AutoSync bool

	Timeout time.Duration
}

// DefaultSyncConfig returns the configuration used when nothing is set.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Auth:            AuthConfig{Mode: AuthNone},
		IdentifierField: DefaultIdentifierField,
		NameField:       DefaultNameField,
		ContentField:    DefaultContentField,
		SendContent:     true,
		Mode:            ModeJSON,
		Extensions:      []string{".md"},
		Timeout:         DefaultTimeout,
	}
}

// Normalized fills empty fields with their defaults and returns the copy.
func (c SyncConfig) Normalized() SyncConfig {
	def := DefaultSyncConfig()
	c.ServerURL = strings.TrimSpace(c.ServerURL)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	if c.Auth.Mode == "" {
		c.Auth.Mode = def.Auth.Mode
	}
	if strings.TrimSpace(c.IdentifierField) == "" {
		c.IdentifierField = def.IdentifierField
	}
	if strings.TrimSpace(c.NameField) == "" {
		c.NameField = def.NameField
	}
	if strings.TrimSpace(c.ContentField) == "" {
		c.ContentField = def.ContentField
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if len(c.Extensions) == 0 {
		c.Extensions = def.Extensions
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	c.ExcludePatterns = append([]string(nil), c.ExcludePatterns...)
	c.Extensions = append([]string(nil), c.Extensions...)
	return c
}

// Validate reports whether the configuration is usable for an upload.
// Missing server information wraps ErrConfigIncomplete.
func (c SyncConfig) Validate() error {
	if c.ServerURL == "" || c.Endpoint == "" {
		return ErrConfigIncomplete
	}
	switch c.Mode {
	case ModeJSON, ModeMultipart:
	default:
		return fmt.Errorf("unknown payload mode %q: %w", c.Mode, ErrConfigIncomplete)
	}
	return nil
}

// HasExtension reports whether id ends with one of the configured extensions.
func (c SyncConfig) HasExtension(id string) bool {
	for _, ext := range c.Extensions {
		if strings.HasSuffix(strings.ToLower(id), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
