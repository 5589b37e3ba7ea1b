package extract

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// FallbackEncodings are tried in order when the input is not valid UTF-8.
var FallbackEncodings = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// signatures of UTF-8 text that was decoded as Windows-1252 somewhere upstream
var mojibakeMarkers = []string{"Ã", "â€", "Â", "ðŸ"}

// Decode recovers readable UTF-8 from raw: fallback decoding for invalid
// bytes, mojibake repair, entity unescaping, and whitespace normalization.
func Decode(raw string) string {
	text := raw
	if !utf8.ValidString(text) {
		text = decodeFallback(text)
	}
	text = repairMojibake(text)
	text = html.UnescapeString(text)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "’", "'")
	text = strings.ReplaceAll(text, "‘", "'")
	return text
}

func decodeFallback(raw string) string {
	for _, enc := range FallbackEncodings {
		out, err := enc.NewDecoder().String(raw)
		if err == nil && utf8.ValidString(out) {
			return out
		}
	}
	return strings.ToValidUTF8(raw, "")
}

func repairMojibake(text string) string {
	suspicious := false
	for _, m := range mojibakeMarkers {
		if strings.Contains(text, m) {
			suspicious = true
			break
		}
	}
	if !suspicious {
		return text
	}

	raw, err := charmap.Windows1252.NewEncoder().String(text)
	if err != nil || !utf8.ValidString(raw) {
		return text
	}
	return raw
}

const emojiClass = `[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{2300}-\x{23FF}\x{FE0F}\x{200D}\x{20E3}\x{E0020}-\x{E007F}]`

var (
	reEmojiTail     = regexp.MustCompile(`(?s)\s*` + emojiClass + `.*$`)
	reEmoji         = regexp.MustCompile(emojiClass + `+`)
	reDecorative    = regexp.MustCompile(`[*•·~=_#|>]{2,}`)
	reEdgeDecor     = regexp.MustCompile(`^[\s*•·~=_#|:,\-–—>]+|[\s*•·~=_#|:,\-–—>]+$`)
	reTerminator    = regexp.MustCompile(`[!?]|\.(?:\s|$)|\s{2,}`)
	reInnerSpace    = regexp.MustCompile(`\s+`)
	reDescSeparator = regexp.MustCompile(`\s+[-–—]\s+`)
)

// cleanName trims a captured flavor span: emoji end the announcement and
// decoration is dropped. With cut set, sentence terminators and double spaces
// also end it, which is only right for free text; a field value such as
// "Dr. Pepper Float" is kept whole.
func cleanName(span string, cut bool) string {
	s := reEmojiTail.ReplaceAllString(span, "")
	s = reDecorative.ReplaceAllString(s, " ")
	s = reEdgeDecor.ReplaceAllString(s, "")
	if loc := reTerminator.FindStringIndex(s); cut && loc != nil {
		s = s[:loc[0]]
	}
	s = strings.TrimSuffix(s, ".")
	s = reEdgeDecor.ReplaceAllString(s, "")
	return s
}

// splitDescription separates "Name - description" spans.
func splitDescription(s string) (string, string) {
	loc := reDescSeparator.FindStringIndex(s)
	if loc == nil {
		return collapse(s), ""
	}
	return collapse(s[:loc[0]]), collapse(s[loc[1]:])
}

func cleanDescription(desc string) string {
	d := reEmoji.ReplaceAllString(desc, "")
	d = reDecorative.ReplaceAllString(d, " ")
	d = reEdgeDecor.ReplaceAllString(d, "")
	return collapse(d)
}

func collapse(s string) string {
	return strings.TrimSpace(reInnerSpace.ReplaceAllString(s, " "))
}
