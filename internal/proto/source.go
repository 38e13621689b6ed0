package proto

import "strings"

// NickFromSource extracts the nick from a nick!user@host identity. A leading
// delimiter at index 0 is part of the nick. Strings without either
// delimiter are returned unchanged.
func NickFromSource(source string) string {
	if len(source) < 2 {
		return source
	}
	cut := -1
	if i := strings.IndexByte(source[1:], '!'); i >= 0 {
		cut = i + 1
	}
	from := 1
	if cut >= 0 {
		from = cut + 1
	}
	if i := strings.IndexByte(source[from:], '@'); i >= 0 {
		at := from + i
		if cut < 0 || at < cut {
			cut = at
		}
	}
	if cut < 0 {
		return source
	}
	return source[:cut]
}
