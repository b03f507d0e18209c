package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the user-assigned importance of a task. It is stored and
// displayed but does not take part in filtering or ordering.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps a user-supplied string to a Priority.
// An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// OrderStep is the gap left between neighbouring order keys so that a task
// can be placed between two others without renumbering.
const OrderStep int64 = 1000

// Task is a single to-do item. ListID nil or DefaultListID both mean Inbox.
type Task struct {
	ID          int64      `json:"id" yaml:"id" db:"id"`
	Title       string     `json:"title" yaml:"title" db:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty" db:"description"`
	IsCompleted bool       `json:"is_completed" yaml:"is_completed" db:"is_completed"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty" db:"due_date"`
	Priority    Priority   `json:"priority" yaml:"priority" db:"priority"`
	ListID      *int64     `json:"list_id,omitempty" yaml:"list_id,omitempty" db:"list_id"`
	Order       int64      `json:"order" yaml:"order" db:"sort_order"`
	IsDeleted   bool       `json:"is_deleted" yaml:"is_deleted" db:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at" db:"updated_at"`

	// Tags is loaded from task_tags and kept in insertion order.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty" db:"-"`

	// Subtasks is embedded in the task row; it has no identity outside it.
	Subtasks []Subtask `json:"subtasks,omitempty" yaml:"subtasks,omitempty" db:"-"`
}

// Subtask is a checklist entry owned by a Task.
type Subtask struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	IsCompleted bool       `json:"is_completed" yaml:"is_completed"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

// EffectiveListID returns the list the task belongs to, substituting
// DefaultListID when ListID is unset.
func (t Task) EffectiveListID() int64 {
	if t.ListID == nil {
		return DefaultListID
	}
	return *t.ListID
}

// InInbox reports whether the task belongs to the default list.
func (t Task) InInbox() bool {
	return t.EffectiveListID() == DefaultListID
}

// HasTag reports whether name is one of the task's labels.
func (t Task) HasTag(name string) bool {
	for _, tag := range t.Tags {
		if tag == name {
			return true
		}
	}
	return false
}

// SubtaskIndex returns the position of the subtask with the given id, or -1.
func (t Task) SubtaskIndex(id string) int {
	for i, st := range t.Subtasks {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// SubtaskProgress returns the number of completed subtasks, the total, and
// the completion percentage rounded to the nearest integer.
func (t Task) SubtaskProgress() (done, total, percent int) {
	total = len(t.Subtasks)
	for _, st := range t.Subtasks {
		if st.IsCompleted {
			done++
		}
	}
	if total > 0 {
		percent = (done*100 + total/2) / total
	}
	return done, total, percent
}

// NewTask holds the caller-supplied fields for creating a task.
type NewTask struct {
	Title       string
	Description string
	ListID      *int64
	DueDate     *time.Time
	Priority    Priority
	Tags        []string
}

// TaskPatch is a partial update. Nil fields are left untouched.
// ClearDueDate removes the due date and wins over DueDate.
type TaskPatch struct {
	Title        *string
	Description  *string
	IsCompleted  *bool
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *Priority
	ListID       *int64
	Tags         *[]string
	Order        *int64
	Subtasks     *[]Subtask
	IsDeleted    *bool
}

// Apply merges the patch into t. It does not touch UpdatedAt.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ListID != nil {
		id := *p.ListID
		t.ListID = &id
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	if p.Subtasks != nil {
		t.Subtasks = append([]Subtask(nil), (*p.Subtasks)...)
	}
	if p.IsDeleted != nil {
		t.IsDeleted = *p.IsDeleted
	}
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T {
	return &v
}
