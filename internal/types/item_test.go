package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ItemStatus
	}{
		{"done", StatusDone},
		{"DONE", StatusDone},
		{"Done", StatusDone},
		{" done", StatusActive},
		{"done ", StatusActive},
		{"\tdone\n", StatusActive},
		{"active", StatusActive},
		{"", StatusActive},
		{"finished", StatusActive},
		{"done!", StatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.in))
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	s, ok := ParseStatusFilter("Done")
	assert.True(t, ok)
	assert.Equal(t, StatusDone, s)

	s, ok = ParseStatusFilter("active")
	assert.True(t, ok)
	assert.Equal(t, StatusActive, s)

	_, ok = ParseStatusFilter("all")
	assert.False(t, ok)

	_, ok = ParseStatusFilter("")
	assert.False(t, ok)
}
