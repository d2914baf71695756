package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrConfigIncomplete    = errors.New("server url or sync endpoint is not configured")
	ErrExcluded            = errors.New("document is excluded from sync by pattern")
	ErrMalformedMetadata   = errors.New("malformed front-matter")
	ErrNetwork             = errors.New("relay request failed")
	ErrServerRejected      = errors.New("relay rejected the document")
	ErrResponseUnparseable = errors.New("relay response could not be reconciled")
	ErrNotFound            = errors.New("document not found")
	ErrPayload             = errors.New("upload payload could not be built")
)

// Kind classifies the outcome of a sync operation.
type Kind int

const (
	KindOK Kind = iota
	KindConfigIncomplete
	KindExcluded
	KindMetadataParse
	KindNetwork
	KindServerRejected
	KindResponseUnparseable
	KindStore
	KindPayload
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindConfigIncomplete:
		return "config_incomplete"
	case KindExcluded:
		return "excluded"
	case KindMetadataParse:
		return "metadata_parse"
	case KindNetwork:
		return "network"
	case KindServerRejected:
		return "server_rejected"
	case KindResponseUnparseable:
		return "response_unparseable"
	case KindStore:
		return "store"
	case KindPayload:
		return "payload"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindOf maps an error to its Kind. Unknown errors are store failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrConfigIncomplete):
		return KindConfigIncomplete
	case errors.Is(err, ErrExcluded):
		return KindExcluded
	case errors.Is(err, ErrMalformedMetadata):
		return KindMetadataParse
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrServerRejected):
		return KindServerRejected
	case errors.Is(err, ErrResponseUnparseable):
		return KindResponseUnparseable
	case errors.Is(err, ErrPayload):
		return KindPayload
	default:
		return KindStore
	}
}
