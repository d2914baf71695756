package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/exclude"
)

// ConfigName is the base name of the config file (noterelay.yaml).
const ConfigName = "noterelay"

// EnvPrefix prefixes every environment variable, e.g. NOTERELAY_SERVER_URL.
const EnvPrefix = "NOTERELAY"

// Config keys. They follow the settings names of the note plugin so an
// exported plugin configuration can be reused.
const (
	KeyVault              = "vault"
	KeyServerURL          = "server_url"
	KeyEndpoint           = "sync_endpoint"
	KeyAuthType           = "auth_type"
	KeyBasicUsername      = "basic_username"
	KeyBasicPassword      = "basic_password"
	KeyAuthToken          = "auth_token"
	KeyIdentifierField    = "note_id_field_name"
	KeyNameField          = "file_name_field_name"
	KeyContentField       = "file_content_field_name"
	KeySendContent        = "send_file_content"
	KeyIncludeFrontMatter = "include_front_matter_in_content"
	KeyPayloadMode        = "payload_mode"
	KeyExcludePatterns    = "exclude_patterns"
	KeyExtensions         = "extensions"
	KeyAcceptServerID     = "overwrite_file_id_from_response"
	KeyAutoSync           = "auto_sync_on_modify"
	KeyTimeout            = "timeout"
)

// LoadEnv loads variables from .env files into the process environment.
// Missing files are ignored; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// NewViper builds the configuration source: defaults, then the config file,
// then NOTERELAY_* environment variables. Flags are bound by the caller.
//
// configFile may be empty, in which case noterelay.yaml is searched in the
// working directory and in $HOME/.config/noterelay. Only an explicitly named
// file is required to exist.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	def := core.DefaultSyncConfig()
	v.SetDefault(KeyVault, ".")
	v.SetDefault(KeyAuthType, string(def.Auth.Mode))
	v.SetDefault(KeyIdentifierField, def.IdentifierField)
	v.SetDefault(KeyNameField, def.NameField)
	v.SetDefault(KeyContentField, def.ContentField)
	v.SetDefault(KeySendContent, def.SendContent)
	v.SetDefault(KeyIncludeFrontMatter, def.IncludeFrontMatter)
	v.SetDefault(KeyPayloadMode, string(def.Mode))
	v.SetDefault(KeyExtensions, def.Extensions)
	v.SetDefault(KeyAcceptServerID, def.AcceptServerID)
	v.SetDefault(KeyAutoSync, def.AutoSync)
	v.SetDefault(KeyTimeout, def.Timeout)
}

// SyncConfigFrom reads the sync settings snapshot out of v.
func SyncConfigFrom(v *viper.Viper) core.SyncConfig {
	cfg := core.SyncConfig{
		ServerURL: v.GetString(KeyServerURL),
		Endpoint:  v.GetString(KeyEndpoint),
		Auth: core.AuthConfig{
			Mode:     core.AuthMode(strings.ToLower(strings.TrimSpace(v.GetString(KeyAuthType)))),
			Username: v.GetString(KeyBasicUsername),
			Password: v.GetString(KeyBasicPassword),
			Token:    v.GetString(KeyAuthToken),
		},
		IdentifierField:    v.GetString(KeyIdentifierField),
		NameField:          v.GetString(KeyNameField),
		ContentField:       v.GetString(KeyContentField),
		SendContent:        v.GetBool(KeySendContent),
		IncludeFrontMatter: v.GetBool(KeyIncludeFrontMatter),
		Mode:               core.PayloadMode(strings.ToLower(strings.TrimSpace(v.GetString(KeyPayloadMode)))),
		ExcludePatterns:    stringList(v.Get(KeyExcludePatterns)),
		Extensions:         stringList(v.Get(KeyExtensions)),
		AcceptServerID:     v.GetBool(KeyAcceptServerID),
		AutoSync:           v.GetBool(KeyAutoSync),
		Timeout:            v.GetDuration(KeyTimeout),
	}
	return cfg.Normalized()
}

// stringList accepts either a YAML list or a comma-separated string, the
// form environment variables and the plugin settings use.
func stringList(raw any) []string {
	switch t := raw.(type) {
	case nil:
		return nil
	case string:
		return exclude.ParsePatterns(t)
	case []string:
		return exclude.ParsePatterns(strings.Join(t, ","))
	case []any:
		var out []string
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return exclude.ParsePatterns(fmt.Sprint(t))
	}
}
