package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeRecognizedText canonicalizes raw recognizer output: NFC
// normalization, control characters stripped, runs of whitespace collapsed to
// single spaces, and surrounding whitespace trimmed.
func NormalizeRecognizedText(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// JoinFrames joins per-frame text blocks in sample order, separating frames
// with a newline and skipping frames that recognized nothing.
func JoinFrames(blocks []string) string {
	kept := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}

// IsTrivial reports whether recognized text is too small to count as a textual
// detection (empty or a single character).
func IsTrivial(text string) bool {
	return len(strings.TrimSpace(text)) <= 1
}
