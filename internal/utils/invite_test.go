package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateInviteCode(t *testing.T) {
	code := GenerateInviteCode("Maya Johnson")
	assert.True(t, strings.HasPrefix(code, "#MAYA-"), code)
	assert.True(t, ValidateInviteCode(code), code)

	// long first names are truncated
	code = GenerateInviteCode("Alexandria")
	assert.True(t, strings.HasPrefix(code, "#ALEXAN-"), code)
	assert.True(t, ValidateInviteCode(code), code)

	// empty names fall back to a generic prefix
	code = GenerateInviteCode("")
	assert.True(t, strings.HasPrefix(code, "#CHILD-"), code)
	assert.True(t, ValidateInviteCode(code), code)
}

func TestValidateInviteCode(t *testing.T) {
	assert.True(t, ValidateInviteCode("#MAYA-123"))
	assert.False(t, ValidateInviteCode("MAYA-123"))
	assert.False(t, ValidateInviteCode("#MAYA"))
	assert.False(t, ValidateInviteCode(""))
	assert.False(t, ValidateInviteCode("#A-1-2"))
}
