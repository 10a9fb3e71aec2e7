// Package notify defines the notification record, its create/update payloads
// and the in-memory entity store that holds active records.
package notify

import (
	"errors"
	"time"
)

// ErrInvalidArgument marks malformed caller input.
var ErrInvalidArgument = errors.New("invalid argument")

// Variant selects the visual style of a notification. It has no effect on
// scheduling.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
	VariantWarning     Variant = "warning"
	VariantInfo        Variant = "info"
)

// Variants lists every supported variant.
var Variants = []Variant{
	VariantDefault,
	VariantSuccess,
	VariantDestructive,
	VariantWarning,
	VariantInfo,
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	for _, known := range Variants {
		if v == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a notification.
type Status string

const (
	StatusPending    Status = "pending"
	StatusVisible    Status = "visible"
	StatusDismissing Status = "dismissing"
	StatusRemoved    Status = "removed"
)

// Forever is the duration that disables auto-dismissal.
const Forever time.Duration = -1

// Action is an optional call-to-action rendered with the notification. The
// core carries it through untouched.
type Action struct {
	Label string `yaml:"label" json:"label"`
	Key   string `yaml:"key" json:"key"`
}

// Notification is an active record owned by the store.
type Notification struct {
	ID          string
	Title       string
	Description string
	Variant     Variant
	Duration    time.Duration // Forever when the record never auto-expires
	Action      *Action
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Persistent returns true when the record never auto-expires.
func (n Notification) Persistent() bool {
	return n.Duration == Forever
}

// Data is the payload for creating a notification. Title is required; a nil
// Duration selects the scheduler default.
type Data struct {
	Title       string
	Description string
	Variant     Variant
	Duration    *time.Duration
	Action      *Action
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Variant     *Variant
	Duration    *time.Duration
	Action      *Action
}

// Empty returns true when the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Variant == nil &&
		p.Duration == nil && p.Action == nil
}

// Apply merges p into n. Status and timestamps are left to the caller.
func (p Patch) Apply(n *Notification) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Variant != nil {
		n.Variant = *p.Variant
	}
	if p.Duration != nil {
		n.Duration = *p.Duration
	}
	if p.Action != nil {
		a := *p.Action
		n.Action = &a
	}
}

// DurationOf is a convenience for filling the optional Duration fields.
func DurationOf(d time.Duration) *time.Duration {
	return &d
}
