// Package dnd turns a drop of one task onto a target into a store mutation.
package dnd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/taskflow/internal/model"
)

// TargetKind identifies what a task was dropped on.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetList
	TargetInbox
	TargetToday
	TargetTask
)

func (k TargetKind) String() string {
	switch k {
	case TargetList:
		return "list"
	case TargetInbox:
		return "inbox"
	case TargetToday:
		return "today"
	case TargetTask:
		return "task"
	}
	return "none"
}

// Target is a drop zone. ID is the list id for TargetList and the task id
// for TargetTask.
type Target struct {
	Kind TargetKind
	ID   int64
}

// String renders the target in the drop-zone id form ParseTarget reads.
func (t Target) String() string {
	switch t.Kind {
	case TargetList:
		return fmt.Sprintf("tag-%d", t.ID)
	case TargetInbox:
		return "smart-inbox"
	case TargetToday:
		return "smart-today"
	case TargetTask:
		return strconv.FormatInt(t.ID, 10)
	}
	return ""
}

// ParseTarget reads a drop-zone id. It accepts "tag-<id>" or "list:<id>"
// for lists, "smart-inbox" or "inbox", "smart-today" or "today", and
// "<id>" or "task:<id>" for tasks. Anything else is TargetNone.
func ParseTarget(s string) Target {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "smart-inbox", "inbox":
		return Target{Kind: TargetInbox}
	case "smart-today", "today":
		return Target{Kind: TargetToday}
	}
	for _, prefix := range []string{"tag-", "list:"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
				return Target{Kind: TargetList, ID: id}
			}
			return Target{}
		}
	}
	s = strings.TrimPrefix(s, "task:")
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		return Target{Kind: TargetTask, ID: id}
	}
	return Target{}
}

// IntentKind identifies the mutation a drop resolves to.
type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentMoveToList
	IntentMoveToInbox
	IntentMoveToToday
	IntentReorder
)

// Intent is a resolved drop. ListID is set for IntentMoveToList, Order
// holds the full new displayed sequence for IntentReorder.
type Intent struct {
	Kind   IntentKind
	TaskID int64
	ListID int64
	Order  []int64
}

// Resolve maps a drop of taskID onto target. displayed is the task sequence
// currently on screen; it is only consulted for task targets.
func Resolve(taskID int64, target Target, displayed []model.Task) Intent {
	switch target.Kind {
	case TargetList:
		return Intent{Kind: IntentMoveToList, TaskID: taskID, ListID: target.ID}
	case TargetInbox:
		return Intent{Kind: IntentMoveToInbox, TaskID: taskID, ListID: model.DefaultListID}
	case TargetToday:
		return Intent{Kind: IntentMoveToToday, TaskID: taskID}
	case TargetTask:
		if target.ID == taskID {
			return Intent{}
		}
		ids := make([]int64, len(displayed))
		from, to := -1, -1
		for i, t := range displayed {
			ids[i] = t.ID
			switch t.ID {
			case taskID:
				from = i
			case target.ID:
				to = i
			}
		}
		if from < 0 || to < 0 {
			return Intent{}
		}
		return Intent{Kind: IntentReorder, TaskID: taskID, Order: Move(ids, from, to)}
	}
	return Intent{}
}

// Move returns a copy of s with the element at from moved to index to,
// shifting the elements in between.
func Move[T any](s []T, from, to int) []T {
	out := make([]T, 0, len(s))
	item := s[from]
	for i, v := range s {
		if i == from {
			continue
		}
		out = append(out, v)
	}
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// Mutator is the part of the store an Intent needs.
type Mutator interface {
	UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) error
	ReorderTasks(ctx context.Context, ids []int64) error
}

// Apply performs the intent. at becomes the due date for IntentMoveToToday.
// IntentNone does nothing.
func Apply(ctx context.Context, m Mutator, in Intent, at time.Time) error {
	switch in.Kind {
	case IntentMoveToList, IntentMoveToInbox:
		return m.UpdateTask(ctx, in.TaskID, model.TaskPatch{ListID: model.Ptr(in.ListID)})
	case IntentMoveToToday:
		return m.UpdateTask(ctx, in.TaskID, model.TaskPatch{DueDate: &at})
	case IntentReorder:
		return m.ReorderTasks(ctx, in.Order)
	}
	return nil
}
