package utils

import "strings"

// EmailToWords returns a slightly obfuscated version of an email address for
// rendering on public pages, replacing @ with " at " and . with " dot ".
func EmailToWords(email string) string {
	email = strings.ReplaceAll(email, "@", " at ")
	return strings.ReplaceAll(email, ".", " dot ")
}
