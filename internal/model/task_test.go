package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"", PriorityMedium, false},
		{"low", PriorityLow, false},
		{" HIGH ", PriorityHigh, false},
		{"Medium", PriorityMedium, false},
		{"urgent", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTask_EffectiveListID(t *testing.T) {
	assert.Equal(t, DefaultListID, Task{}.EffectiveListID())
	assert.True(t, Task{}.InInbox())
	assert.True(t, Task{ListID: Ptr(DefaultListID)}.InInbox())

	work := Task{ListID: Ptr(int64(4))}
	assert.Equal(t, int64(4), work.EffectiveListID())
	assert.False(t, work.InInbox())
}

func TestTask_SubtaskProgress(t *testing.T) {
	task := Task{Subtasks: []Subtask{
		{ID: "a", IsCompleted: true},
		{ID: "b"},
		{ID: "c"},
	}}

	done, total, percent := task.SubtaskProgress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 3, total)
	assert.Equal(t, 33, percent)

	task.Subtasks[1].IsCompleted = true
	_, _, percent = task.SubtaskProgress()
	assert.Equal(t, 67, percent)

	_, total, percent = Task{}.SubtaskProgress()
	assert.Zero(t, total)
	assert.Zero(t, percent)

	assert.Equal(t, 2, task.SubtaskIndex("c"))
	assert.Equal(t, -1, task.SubtaskIndex("z"))
}

func TestTaskPatch_Apply(t *testing.T) {
	due := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	tags := []string{"a"}
	task := Task{
		ID:       1,
		Title:    "old",
		Priority: PriorityLow,
		DueDate:  &due,
		Tags:     []string{"x", "y"},
		Order:    3000,
	}

	TaskPatch{Title: Ptr("new"), Tags: &tags}.Apply(&task)
	assert.Equal(t, "new", task.Title)
	assert.Equal(t, []string{"a"}, task.Tags)
	assert.Equal(t, PriorityLow, task.Priority)
	assert.Equal(t, int64(3000), task.Order)
	require.NotNil(t, task.DueDate)

	// The patch's slice is copied, not shared.
	tags[0] = "changed"
	assert.Equal(t, []string{"a"}, task.Tags)

	later := due.AddDate(0, 0, 5)
	TaskPatch{DueDate: &later, ClearDueDate: true, IsDeleted: Ptr(true)}.Apply(&task)
	assert.Nil(t, task.DueDate)
	assert.True(t, task.IsDeleted)

	TaskPatch{DueDate: &later, ListID: Ptr(int64(2))}.Apply(&task)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(later))
	assert.Equal(t, int64(2), task.EffectiveListID())

	TaskPatch{}.Apply(&task)
	assert.Equal(t, "new", task.Title)
}

func TestListPatch_Apply(t *testing.T) {
	l := TaskList{ID: 2, Name: "Work", Color: "#fff", Icon: "w"}

	ListPatch{Name: Ptr("Office")}.Apply(&l)

	assert.Equal(t, TaskList{ID: 2, Name: "Office", Color: "#fff", Icon: "w"}, l)
}
