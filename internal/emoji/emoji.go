// Package emoji replaces :name: shorthand tokens with their glyphs.
package emoji

import "regexp"

var glyphs = map[string]string{
	":smile:":    "😄",
	":grinning:": "😀",
	":joy:":      "😂",
	":wink:":     "😉",
	":heart:":    "❤️",
	":thumbsup:": "👍",
	":cry:":      "😢",
	":angry:":    "😠",
	":ok_hand:":  "👌",
	":clap:":     "👏",
	":fire:":     "🔥",
	":star:":     "⭐",
}

var tokenPattern = regexp.MustCompile(`:[a-zA-Z0-9_+-]+:`)

// Normalize replaces every recognized shorthand token in input with its
// glyph. Unrecognized tokens are left as-is. Glyphs never re-match the
// token pattern, so Normalize is idempotent.
func Normalize(input string) string {
	if input == "" {
		return ""
	}
	return tokenPattern.ReplaceAllStringFunc(input, func(token string) string {
		if glyph, ok := glyphs[token]; ok {
			return glyph
		}
		return token
	})
}
