package utils

import "crypto/rand"

// inviteAlphabet is the URL-safe character set used for invite codes so
// they can be embedded directly in share links.
const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// InviteCodeLen is the length of generated invite codes. 9 characters
// over a 64-symbol alphabet gives 64^9 (~10^16) possible codes, plenty
// against guessing while staying short enough to read out loud.
const InviteCodeLen = 9

// NewInviteCode returns a random URL-safe invite code.
func NewInviteCode() (string, error) {
    buf := make([]byte, InviteCodeLen)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    out := make([]byte, InviteCodeLen)
    for i, b := range buf {
        // 64 symbols divide 256 evenly, so masking keeps the draw uniform.
        out[i] = inviteAlphabet[b&63]
    }
    return string(out), nil
}
