package common

import "strings"

// Profile and user identifiers travel in two shapes: the dashed textual UUID
// used in storage, and the undashed 32-hex-digit form the game protocol
// emits. Inputs are accepted in either shape; profile-facing responses are
// always dash-stripped.

// StripUUID removes dashes and lowercases a UUID string.
func StripUUID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// FormatUUID converts an undashed 32-hex-digit UUID to the dashed form.
// Already-dashed or otherwise-shaped input is returned unchanged.
func FormatUUID(id string) string {
	if len(id) != 32 {
		return id
	}
	return id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:]
}

// IsUUID reports whether id is a UUID in dashed or undashed form.
func IsUUID(id string) bool {
	stripped := StripUUID(id)
	if len(stripped) != 32 {
		return false
	}
	for _, c := range stripped {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	// a dashed input must have dashes in the canonical positions
	if len(id) == 36 {
		return id[8] == '-' && id[13] == '-' && id[18] == '-' && id[23] == '-'
	}
	return len(id) == 32
}
