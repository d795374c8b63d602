package gateway

import "regexp"

var referencePattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+`)

// ValidReference reports whether ref looks like a reference to a video on
// the supported platform. It does no I/O.
func ValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}
