package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ViewKind identifies which predicate a View applies.
type ViewKind string

const (
	ViewInbox    ViewKind = "inbox"
	ViewToday    ViewKind = "today"
	ViewUpcoming ViewKind = "upcoming"
	ViewOverdue  ViewKind = "overdue"
	ViewList     ViewKind = "list"
	ViewLabel    ViewKind = "label"
	ViewSearch   ViewKind = "search"
	ViewTrash    ViewKind = "trash"
)

// View describes a filtered subset of tasks.
// ListID is used by ViewList, Tag by ViewLabel and Query by ViewSearch.
type View struct {
	Kind   ViewKind
	ListID int64
	Tag    string
	Query  string
}

// Smart views shown above the user's lists.
var (
	InboxView    = View{Kind: ViewInbox}
	TodayView    = View{Kind: ViewToday}
	UpcomingView = View{Kind: ViewUpcoming}
	OverdueView  = View{Kind: ViewOverdue}
	TrashView    = View{Kind: ViewTrash}
)

// ListView returns the view of a single list.
func ListView(id int64) View { return View{Kind: ViewList, ListID: id} }

// LabelView returns the view of tasks carrying the given label.
func LabelView(tag string) View { return View{Kind: ViewLabel, Tag: tag} }

// SearchView returns a substring search view.
func SearchView(q string) View { return View{Kind: ViewSearch, Query: q} }

// String renders the view in the same form ParseView accepts.
func (v View) String() string {
	switch v.Kind {
	case ViewList:
		return fmt.Sprintf("list:%d", v.ListID)
	case ViewLabel:
		return "label:" + v.Tag
	case ViewSearch:
		return "search:" + v.Query
	default:
		return string(v.Kind)
	}
}

// ParseView parses "inbox", "today", "upcoming", "overdue", "trash",
// "list:<id>", "label:<name>" or "search:<query>".
func ParseView(s string) (View, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	switch ViewKind(strings.ToLower(kind)) {
	case ViewInbox, "":
		return InboxView, nil
	case ViewToday:
		return TodayView, nil
	case ViewUpcoming:
		return UpcomingView, nil
	case ViewOverdue:
		return OverdueView, nil
	case ViewTrash:
		return TrashView, nil
	case ViewList:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return View{}, fmt.Errorf("invalid list id %q", arg)
		}
		return ListView(id), nil
	case ViewLabel:
		if arg == "" {
			return View{}, fmt.Errorf("label view needs a name")
		}
		return LabelView(arg), nil
	case ViewSearch:
		return SearchView(arg), nil
	}
	return View{}, fmt.Errorf("unknown view %q", s)
}
