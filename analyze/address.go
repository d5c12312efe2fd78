package analyze

import "regexp"

// addrPattern matches the first bracketed address in a From header:
// "Jane Doe <jane@example.com>" yields "jane@example.com".
var addrPattern = regexp.MustCompile(`<([^>@]+@[^>]+)>`)

// ExtractAddress returns the bare address portion of a free-form sender
// header. When no bracketed address is found the input is returned unchanged.
func ExtractAddress(value string) string {
	if m := addrPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return value
}
