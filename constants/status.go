package constants

// DocumentStatus is the lifecycle state of a document record.
type DocumentStatus string

// Stable values (these exact strings are rendered by the views and the API).
const (
	StatusPending    DocumentStatus = "pending"    // enqueued, not started
	StatusProcessing DocumentStatus = "processing" // extraction in flight
	StatusCompleted  DocumentStatus = "completed"  // terminal, data present
	StatusError      DocumentStatus = "error"      // terminal, error message present
)

// ExtractionFailedMessage is the user-facing text stored on records that failed.
const ExtractionFailedMessage = "Failed to extract data"

// IsTerminal reports whether no further transitions are allowed from s.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to DocumentStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusError
	}
	return false
}
