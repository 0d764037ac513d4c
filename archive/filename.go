package archive

import (
	"strings"
	"time"
)

// Extension is the fixed suffix of every archived message file.
const Extension = ".eml"

// timestampLayout formats the receipt time as a filename-safe prefix.
const timestampLayout = "2006-01-02T15_04_05"

// sanitizer replaces characters that are unsafe in file names across
// the supported stores.
var sanitizer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	"?", "_",
	"%", "_",
	"*", "_",
	":", "_",
	"|", "_",
	"\"", "_",
	"<", "_",
	">", "_",
)

// Sanitize degrades a subject line into a filename-safe label. It is
// total: any input yields a usable result.
func Sanitize(subject string) string {
	return sanitizer.Replace(strings.TrimSpace(subject))
}

// Filename derives the archive file name for a message. The timestamp
// must already be in the deployment's reference zone; names are
// collision-free for distinct (second, subject) pairs.
func Filename(ts time.Time, subject string) string {
	prefix := ts.Format(timestampLayout)
	label := Sanitize(subject)
	if label == "" {
		return prefix + Extension
	}
	return prefix + " " + label + Extension
}
