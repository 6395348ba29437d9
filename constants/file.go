package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for case import.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// SpreadsheetExtensions holds the extensions accepted by the tabular case import.
var SpreadsheetExtensions = map[string]struct{}{
	"xlsx": {},
	"csv":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
