// Package catalog turns raw list items into catalog entries.
package catalog

import (
	"regexp"
	"strings"
)

const separator = ":"

// annotation matches footnote markers such as "[2]" or "[carece de fontes]".
var annotation = regexp.MustCompile(`\[.*?\]`)

// Entry is one name/description pair. Key is its identity and is compared
// as an exact string.
type Entry struct {
	Key         string
	Description string
}

// Valid reports whether the entry has a key to be stored under.
func (e Entry) Valid() bool {
	return e.Key != ""
}

// Normalize splits raw on the first separator into key and description,
// strips bracketed annotations from both and collapses every run of
// whitespace to a single space, trimming the ends.
// Text without a separator becomes a key with an empty description.
func Normalize(raw string) Entry {
	key, desc, _ := strings.Cut(raw, separator)
	return Entry{
		Key:         clean(key),
		Description: clean(desc),
	}
}

// NormalizeAll normalizes every item, keeping order.
func NormalizeAll(raw []string) []Entry {
	out := make([]Entry, len(raw))
	for i, r := range raw {
		out[i] = Normalize(r)
	}
	return out
}

func clean(s string) string {
	return strings.Join(strings.Fields(annotation.ReplaceAllString(s, "")), " ")
}
