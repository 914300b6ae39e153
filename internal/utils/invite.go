package utils

import (
	"fmt"
	"math/rand"
	"strings"
)

// GenerateInviteCode generates a care-team invite code in format #NAME-123,
// derived from the child's name so invitees can recognize it
func GenerateInviteCode(childName string) string {
	words := strings.Fields(childName)
	prefix := "CHILD"
	if len(words) > 0 {
		prefix = strings.ToUpper(words[0])
	}
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}

	// Random 3-digit number
	number := rand.Intn(900) + 100 // 100-999

	return fmt.Sprintf("#%s-%d", prefix, number)
}

// ValidateInviteCode validates the format of an invite code
func ValidateInviteCode(code string) bool {
	// Should start with # and contain a dash
	if len(code) < 5 || code[0] != '#' {
		return false
	}

	parts := strings.Split(code[1:], "-")
	return len(parts) == 2
}
