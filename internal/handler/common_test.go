package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moimlab/moim-server/internal/model"
)

func TestParseQueryID(t *testing.T) {
	cases := []struct {
		raw  string
		want uint64
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"-1", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseQueryID(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}

func TestNormalizeAttendance(t *testing.T) {
	got, ok := normalizeAttendance("")
	assert.True(t, ok)
	assert.Equal(t, model.Undecided, got)

	got, ok = normalizeAttendance("attending")
	assert.True(t, ok)
	assert.Equal(t, model.Attending, got)

	got, ok = normalizeAttendance("NOT_ATTENDING")
	assert.True(t, ok)
	assert.Equal(t, model.NotAttending, got)

	_, ok = normalizeAttendance("MAYBE")
	assert.False(t, ok)
}
