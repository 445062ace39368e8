package notes

import "math"

// Progress is the 0-100 completion percentage shown to clients. It is never
// stored.
func Progress(status Status, subtasks []Subtask) int {
	if len(subtasks) > 0 {
		ratio := float64(CompletedCount(subtasks)) / float64(len(subtasks))
		return int(math.Round(100 * ratio))
	}
	switch status {
	case StatusCompleted:
		return 100
	case StatusInProgress:
		return 50
	default:
		return 0
	}
}
