package notes

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveFromSubtasks(t *testing.T) {
	cases := []struct {
		name     string
		subtasks []Subtask
		want     Status
		progress int
	}{
		{
			name:     "all completed",
			subtasks: []Subtask{{Title: "a", Completed: true}, {Title: "b", Completed: true}},
			want:     StatusCompleted,
			progress: 100,
		},
		{
			name:     "some completed",
			subtasks: []Subtask{{Title: "a", Completed: true}, {Title: "b"}, {Title: "c"}},
			want:     StatusInProgress,
			progress: 33,
		},
		{
			name:     "none completed",
			subtasks: []Subtask{{Title: "a"}, {Title: "b"}},
			want:     StatusPending,
			progress: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, requested := range []Status{"", StatusPending, StatusInProgress, StatusCompleted} {
				got := Derive(tc.subtasks, requested, StatusCompleted)
				assert.Equal(t, tc.want, got, "requested=%q", requested)
			}
			assert.Equal(t, tc.progress, Progress(tc.want, tc.subtasks))
		})
	}
}

func TestPartialProgressIsStrictlyBetweenBounds(t *testing.T) {
	for total := 2; total <= 12; total++ {
		for done := 1; done < total; done++ {
			subtasks := make([]Subtask, total)
			for i := range subtasks {
				subtasks[i] = Subtask{Title: "s", Completed: i < done}
			}
			status := Derive(subtasks, "", StatusPending)
			require.Equal(t, StatusInProgress, status)
			progress := Progress(status, subtasks)
			assert.Greater(t, progress, 0)
			assert.Less(t, progress, 100)
		}
	}
}

func TestProgressRoundsHalfUp(t *testing.T) {
	subtasks := []Subtask{{Title: "a", Completed: true}, {Title: "b"}, {Title: "c"}, {Title: "d"}, {Title: "e"}, {Title: "f"}, {Title: "g"}, {Title: "h"}}
	// 1/8 = 12.5%
	assert.Equal(t, 13, Progress(StatusInProgress, subtasks))
}

func TestDeriveWithoutSubtasks(t *testing.T) {
	assert.Equal(t, StatusCompleted, Derive(nil, StatusCompleted, StatusPending))
	assert.Equal(t, StatusInProgress, Derive([]Subtask{}, "", StatusInProgress))
	assert.Equal(t, StatusPending, Derive(nil, "", ""))

	assert.Equal(t, 100, Progress(StatusCompleted, nil))
	assert.Equal(t, 50, Progress(StatusInProgress, nil))
	assert.Equal(t, 0, Progress(StatusPending, nil))
}

func TestResolveRejectsUnknownStatusEvenWithSubtasks(t *testing.T) {
	subtasks := []Subtask{{Title: "a", Completed: true}}

	_, err := Resolve(subtasks, "done", StatusPending)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "status", validationErr.Field)

	_, err = Resolve(nil, "done", StatusPending)
	require.Error(t, err)
}

func TestResolveComparesStatusExactly(t *testing.T) {
	for _, requested := range []string{" completed ", "completed\n", "   ", "Completed"} {
		_, err := Resolve(nil, requested, StatusPending)
		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr), "requested=%q", requested)
		assert.Equal(t, "status", validationErr.Field)
	}
	assert.Equal(t, "requested", Source(nil, "   "))
}

func TestResolveTreatsEmptyRequestAsAbsent(t *testing.T) {
	status, err := Resolve(nil, "", StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)

	status, err = Resolve(nil, "completed", StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestSource(t *testing.T) {
	assert.Equal(t, "subtasks", Source([]Subtask{{Title: "a"}}, "completed"))
	assert.Equal(t, "requested", Source(nil, "completed"))
	assert.Equal(t, "fallback", Source(nil, ""))
}

func TestNormalizeDropsBlankTitles(t *testing.T) {
	got := Normalize([]Subtask{{Title: "  ", Completed: true}})
	require.NotNil(t, got)
	assert.Empty(t, got)

	got = Normalize([]Subtask{{Title: " write ", Completed: true}, {Title: ""}, {Title: "ship"}})
	assert.Equal(t, []Subtask{{Title: "write", Completed: true}, {Title: "ship"}}, got)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	input := []Subtask{{Title: "  padded  "}}
	_ = Normalize(input)
	assert.Equal(t, "  padded  ", input[0].Title)
}

func TestNormalizeJSONCoercion(t *testing.T) {
	raw := json.RawMessage(`[
		{"title": "  first ", "completed": 1},
		{"title": "   ", "completed": true},
		{"title": 42, "completed": "yes"},
		{"title": true},
		{"title": null, "completed": true},
		{"completed": true},
		"just a string",
		7,
		{"title": "last", "completed": 0},
		{"title": "empty flag", "completed": ""}
	]`)

	got := NormalizeJSON(raw)
	assert.Equal(t, []Subtask{
		{Title: "first", Completed: true},
		{Title: "42", Completed: true},
		{Title: "true", Completed: false},
		{Title: "last", Completed: false},
		{Title: "empty flag", Completed: false},
	}, got)
}

func TestNormalizeJSONNonListIsEmpty(t *testing.T) {
	for _, raw := range []string{`{"title":"a"}`, `"abc"`, `12`, `true`, `null`, ``, `not json`} {
		got := NormalizeJSON(json.RawMessage(raw))
		require.NotNil(t, got, "raw=%s", raw)
		assert.Empty(t, got, "raw=%s", raw)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`[{"title":" a ","completed":true},{"title":"b"},{"title":" "}]`,
		`[{"title":"x","completed":"false"}]`,
		`[]`,
	}
	for _, raw := range inputs {
		once := NormalizeJSON(json.RawMessage(raw))
		assert.Equal(t, once, Normalize(once))

		encoded, err := json.Marshal(once)
		require.NoError(t, err)
		assert.Equal(t, once, NormalizeJSON(encoded))
	}
}

func TestRequireText(t *testing.T) {
	err := RequireText("title", "   ")
	require.Error(t, err)
	assert.Equal(t, "title: title is required", err.Error())
	assert.NoError(t, RequireText("title", "T"))
}
