// Package notes holds the rules that keep a note's status consistent with its
// checklist: subtask normalization, status derivation and progress.
package notes

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

var allowedStatuses = map[Status]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

func (s Status) Valid() bool {
	_, ok := allowedStatuses[s]
	return ok
}

// ParseStatus validates a caller-supplied status. The empty string means the
// caller did not ask for a status and yields ("", nil).
func ParseStatus(value string) (Status, error) {
	if value == "" {
		return "", nil
	}
	status := Status(value)
	if !status.Valid() {
		return "", &ValidationError{Field: "status", Reason: "invalid status value"}
	}
	return status, nil
}

// Derive computes the authoritative status. A non-empty checklist always wins
// over requested; with no subtasks the requested status (if any) replaces
// fallback.
func Derive(subtasks []Subtask, requested, fallback Status) Status {
	if len(subtasks) > 0 {
		completed := CompletedCount(subtasks)
		switch {
		case completed == len(subtasks):
			return StatusCompleted
		case completed > 0:
			return StatusInProgress
		default:
			return StatusPending
		}
	}
	if requested.Valid() {
		return requested
	}
	if fallback.Valid() {
		return fallback
	}
	return StatusPending
}

// Resolve validates requested before deriving, so an out-of-enum value is
// rejected even when the checklist would have overridden it. Only the empty
// string counts as absent; anything else must match the enum exactly.
func Resolve(subtasks []Subtask, requested string, fallback Status) (Status, error) {
	parsed, err := ParseStatus(requested)
	if err != nil {
		return "", err
	}
	return Derive(subtasks, parsed, fallback), nil
}

// Source reports which input decided the status, for metrics.
func Source(subtasks []Subtask, requested string) string {
	switch {
	case len(subtasks) > 0:
		return "subtasks"
	case requested != "":
		return "requested"
	default:
		return "fallback"
	}
}
