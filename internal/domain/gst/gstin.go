// Package gst holds the GSTIN format check. It only checks length: there is
// no checksum or registry lookup behind it.
package gst

import "unicode/utf8"

// GSTINLength is the length of a GST identification number.
const GSTINLength = 15

// Result is the response body of a format check.
type Result struct {
	Valid      bool   `json:"valid"`
	Compliance string `json:"compliance,omitempty"`
}

// Check reports whether gstin has exactly 15 characters.
func Check(gstin string) Result {
	if utf8.RuneCountInString(gstin) != GSTINLength {
		return Result{Valid: false}
	}
	return Result{Valid: true, Compliance: "GSTIN format valid"}
}
