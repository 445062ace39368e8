package notes

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Subtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Normalize returns a new slice with titles trimmed and blank entries
// dropped. It never returns nil, and normalizing twice changes nothing.
func Normalize(input []Subtask) []Subtask {
	out := make([]Subtask, 0, len(input))
	for _, item := range input {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		out = append(out, Subtask{Title: title, Completed: item.Completed})
	}
	return out
}

// NormalizeJSON accepts whatever the client sent for "subtasks". Anything that
// is not a JSON array is an empty list; entries that are not objects or have a
// blank title are dropped.
func NormalizeJSON(raw json.RawMessage) []Subtask {
	var decoded any
	if len(raw) == 0 || json.Unmarshal(raw, &decoded) != nil {
		return []Subtask{}
	}
	items, ok := decoded.([]any)
	if !ok {
		return []Subtask{}
	}

	out := make([]Subtask, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title := strings.TrimSpace(coerceText(record["title"]))
		if title == "" {
			continue
		}
		out = append(out, Subtask{Title: title, Completed: truthy(record["completed"])})
	}
	return out
}

// CompletedCount counts checked subtasks.
func CompletedCount(subtasks []Subtask) int {
	count := 0
	for _, item := range subtasks {
		if item.Completed {
			count++
		}
	}
	return count
}

func coerceText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	default:
		return true
	}
}
