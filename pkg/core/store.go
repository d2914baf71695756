package core

import "context"

// DocumentStore is the capability to read and replace the full text of a document.
// The host owns the documents; every metadata change goes through Read then Write.
type DocumentStore interface {
	// Read returns the current text of the document.
	Read(ctx context.Context, id string) (string, error)

	// Write replaces the whole document text in a single step.
	Write(ctx context.Context, id string, text string) error
}

// Lister is implemented by stores that can enumerate their documents.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Locator is implemented by stores that can resolve a document to an absolute path.
// Stores without a notion of local paths simply do not implement it.
type Locator interface {
	AbsPath(id string) (string, bool)
}
