package validator

import "strings"

// FullName requires at least two space-separated tokens ("First Last").
func FullName(name string) bool {
	return len(strings.Fields(strings.TrimSpace(name))) >= 2
}

// Email applies the same lenient check as the original registration flow:
// the address must contain an @. Full RFC parsing rejects too many addresses
// people actually type into a chat.
func Email(email string) bool {
	return strings.Contains(email, "@")
}
