package model

// DefaultListID is the id of the Inbox list. It is seeded with the store and
// can never be deleted.
const DefaultListID int64 = 1

// TaskList is a named grouping of tasks; the UI calls these tags.
type TaskList struct {
	ID        int64  `json:"id" yaml:"id" db:"id"`
	Name      string `json:"name" yaml:"name" db:"name"`
	Color     string `json:"color,omitempty" yaml:"color,omitempty" db:"color"`
	Icon      string `json:"icon,omitempty" yaml:"icon,omitempty" db:"icon"`
	IsDefault bool   `json:"is_default" yaml:"is_default" db:"is_default"`
}

// ListPatch is a partial update for a TaskList.
type ListPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// Apply merges the patch into l.
func (p ListPatch) Apply(l *TaskList) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.Icon != nil {
		l.Icon = *p.Icon
	}
}
