package core

import "fmt"

// Outcome is the result of one sync or identifier operation.
// Identifier always holds the best known value, even when Err is set.
type Outcome struct {
	DocumentID string
	Identifier string
	Kind       Kind
	Status     int // HTTP status, zero when no request was made

	Generated  bool // a new identifier was created locally
	Reconciled bool // the identifier was replaced by the relay's value
	Err        error
}

// OK reports whether the operation finished without a failure.
// Exclusion is a normal early exit and an unusable relay response leaves the
// local identifier in effect, so both count as OK.
func (o Outcome) OK() bool {
	switch o.Kind {
	case KindOK, KindExcluded, KindResponseUnparseable:
		return true
	}
	return false
}

// Message renders the operator-facing notification for the outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case KindOK:
		if o.Reconciled {
			return fmt.Sprintf("%s: identifier updated from relay response: %s", o.DocumentID, o.Identifier)
		}
		return fmt.Sprintf("%s: synced (identifier %s)", o.DocumentID, o.Identifier)
	case KindExcluded:
		return fmt.Sprintf("%s: excluded from sync by pattern", o.DocumentID)
	case KindConfigIncomplete:
		return "server information is not configured"
	case KindServerRejected:
		return fmt.Sprintf("%s: relay responded with status %d (using local identifier %s)", o.DocumentID, o.Status, o.Identifier)
	case KindNetwork:
		return fmt.Sprintf("%s: relay request failed (using local identifier %s): %v", o.DocumentID, o.Identifier, o.Err)
	case KindResponseUnparseable:
		return fmt.Sprintf("%s: synced, relay response not reconciled (identifier %s)", o.DocumentID, o.Identifier)
	default:
		return fmt.Sprintf("%s: %s: %v", o.DocumentID, o.Kind, o.Err)
	}
}
