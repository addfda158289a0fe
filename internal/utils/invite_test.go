package utils

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewInviteCode(t *testing.T) {
    seen := make(map[string]bool)
    for i := 0; i < 100; i++ {
        code, err := NewInviteCode()
        require.NoError(t, err)
        assert.Len(t, code, InviteCodeLen)
        for _, ch := range code {
            assert.True(t, strings.ContainsRune(inviteAlphabet, ch), "unexpected char %q", ch)
        }
        assert.False(t, seen[code], "duplicate code %s", code)
        seen[code] = true
    }
}

func TestHashRefreshRaw_Deterministic(t *testing.T) {
    a := HashRefreshRaw("some-raw-token")
    b := HashRefreshRaw("some-raw-token")
    assert.Equal(t, a, b)
    assert.Len(t, a, 64)
    assert.NotEqual(t, a, HashRefreshRaw("other-token"))
}
