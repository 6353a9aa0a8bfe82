package util

import (
	"strings"
	"unicode"
)

// Cyrillic to latin mapping for slug generation. Category and product
// names arrive in Russian from the admin UI and the import spreadsheets.
var translitTable = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Slugify builds a URL-safe identifier from a human-readable name.
func Slugify(name string) string {
	var b strings.Builder
	prevDash := true // suppress leading dash

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case unicode.Is(unicode.Cyrillic, r):
			if t, ok := translitTable[r]; ok {
				b.WriteString(t)
				if t != "" {
					prevDash = false
				}
			}
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
