// Package noterelay is the Composition Root for the note relay.
//
// It connects the sync pipeline (identity, payload, relay client and
// reconciler) with a document store, by default a directory of Markdown
// notes with YAML front-matter.
//
// Every managed note carries a stable identifier in its front-matter. The
// identifier is generated once, never replaced locally, and may only be
// overwritten by the relay server's answer when that policy is enabled.
//
// Features:
//
//   - **Idempotent identifiers**: UUIDv4 written with a re-read before every write.
//   - **Two upload shapes**: a JSON object or a multipart file upload.
//   - **Exclusion globs**: doublestar patterns such as "templates/**".
//   - **Watch mode**: fsnotify events coalesced per note.
//   - **Structured edits**: untouched front-matter keeps its order and comments.
//
// Usage:
//
//	cfg := noterelay.DefaultConfig()
//	cfg.ServerURL = "https://relay.example.com"
//	cfg.Endpoint = "/api/notes"
//
//	r, err := noterelay.New("./vault", cfg, noterelay.WithLogger(logger))
//
//	// Sync one note
//	outcome := r.SyncOne(ctx, "daily/2024-05-01.md")
package noterelay
