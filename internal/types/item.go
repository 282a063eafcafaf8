package types

import (
	"strings"
	"time"
)

type ItemStatus string

const (
	StatusActive ItemStatus = "active"
	StatusDone   ItemStatus = "done"
)

// NormalizeStatus maps free input onto a status: done when the lowercased
// value is exactly "done", active otherwise. Surrounding space is not trimmed.
func NormalizeStatus(s string) ItemStatus {
	if strings.ToLower(s) == string(StatusDone) {
		return StatusDone
	}
	return StatusActive
}

// ParseStatusFilter returns the status to filter by, or false when s is not
// a known status and the list should not be filtered.
func ParseStatusFilter(s string) (ItemStatus, bool) {
	switch ItemStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, true
	case StatusDone:
		return StatusDone, true
	default:
		return "", false
	}
}

type Item struct {
	ID          int64      `json:"id" example:"42"`
	Title       string     `json:"title" example:"Buy milk"`
	Description string     `json:"description" example:"2 litres"`
	Status      ItemStatus `json:"status" example:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ItemInput is the body of create and update. Update replaces every field;
// absent fields count as empty.
type ItemInput struct {
	Title       string `json:"title" example:"Buy milk"`
	Description string `json:"description" example:"2 litres"`
	Status      string `json:"status" example:"active"`
}

// ItemFilter narrows a list. A zero value lists everything.
type ItemFilter struct {
	Status ItemStatus
	Query  string
}
