// Package devrelay is a reference relay server for local development and tests.
//
// It accepts both upload shapes, keeps the notes in memory and answers with
// the identifier it stored, assigning a UUID when the upload carries none.
package devrelay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/payload"
	"github.com/bak-libra26/note-relay/pkg/relay"
)

const maxUploadBytes = 10 << 20

// Config holds the configuration for the relay server.
type Config struct {
	// Endpoint is the upload path, e.g. "/api/notes".
	Endpoint        string
	IdentifierField string
	// Auth, when set, is required on every request.
	Auth core.AuthConfig
	// Reassign makes the server replace every incoming identifier with a new one.
	Reassign bool
	Logger   *slog.Logger
}

// Record is one stored note.
type Record struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Mode       string         `json:"mode"`
	Content    string         `json:"content,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Server stores uploaded notes in memory.
type Server struct {
	config Config
	router *mux.Router

	mu    sync.RWMutex
	notes map[string]Record
}

// New creates a relay server and registers its routes.
func New(config Config) *Server {
	config.Endpoint = "/" + strings.Trim(config.Endpoint, "/")
	if config.Endpoint == "/" {
		config.Endpoint = "/api/notes"
	}
	if config.IdentifierField == "" {
		config.IdentifierField = core.DefaultIdentifierField
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		config: config,
		notes:  make(map[string]Record),
	}

	r := mux.NewRouter().UseEncodedPath()
	r.HandleFunc(config.Endpoint, s.handleJSON).Methods(http.MethodPost)
	r.HandleFunc(config.Endpoint, s.handleList).Methods(http.MethodGet)
	r.HandleFunc(config.Endpoint+"/{id}", s.handleMultipart).Methods(http.MethodPost)
	r.HandleFunc(config.Endpoint+"/{id}", s.handleGet).Methods(http.MethodGet)
	r.Use(s.authenticate)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.config.Logger.Info("relay listening", "addr", addr, "endpoint", s.config.Endpoint)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Get returns a stored note.
func (s *Server) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.notes[id]
	return rec, ok
}

// Records returns every stored note ordered by ID.
func (s *Server) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.notes))
	for _, rec := range s.notes {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	want := relay.AuthHeaders(s.config.Auth).Get("Authorization")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want != "" && r.Header.Get("Authorization") != want {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&fields); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	desc, _ := fields[payload.FieldDescriptor].(map[string]any)
	field := describedField(desc, "file_id_field_name", s.config.IdentifierField)
	id, _ := fields[field].(string)

	rec := Record{Mode: string(core.ModeJSON), Fields: fields}
	rec.Name, _ = fields[describedField(desc, "file_name_field_name", core.DefaultNameField)].(string)
	rec.Content, _ = fields[describedField(desc, "file_content_field_name", core.DefaultContentField)].(string)
	s.store(w, field, id, rec)
}

// describedField returns the field name the client announced in its
// descriptor, or def.
func describedField(desc map[string]any, key, def string) string {
	if name, ok := desc[key].(string); ok && name != "" {
		return name
	}
	return def
}

func (s *Server) handleMultipart(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid identifier", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile(payload.FormField)
	if err != nil {
		http.Error(w, fmt.Sprintf("missing %q part: %v", payload.FormField, err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec := Record{Mode: string(core.ModeMultipart), Name: header.Filename, Content: string(data)}
	s.store(w, s.config.IdentifierField, id, rec)
}

func (s *Server) store(w http.ResponseWriter, field, id string, rec Record) {
	status := http.StatusOK
	if strings.TrimSpace(id) == "" || s.config.Reassign {
		id = uuid.NewString()
		status = http.StatusCreated
	}
	rec.ID = id
	rec.ReceivedAt = time.Now()

	s.mu.Lock()
	s.notes[id] = rec
	s.mu.Unlock()

	s.config.Logger.Info("note received", "id", id, "mode", rec.Mode, "name", rec.Name)
	writeJSON(w, status, map[string]any{field: id, "status": "stored"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Records())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid identifier", http.StatusBadRequest)
		return
	}
	rec, ok := s.Get(id)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
