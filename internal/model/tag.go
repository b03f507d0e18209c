package model

// Tag is a registered free-text label. Tasks reference labels by name.
type Tag struct {
	ID    int64  `json:"id" yaml:"id" db:"id"`
	Name  string `json:"name" yaml:"name" db:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty" db:"color"`
}
