// Package textutil holds the whitespace, line and sentence helpers shared by
// the extractor, the signal detectors and the reply orchestrator.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize collapses every run of whitespace into a single space and trims
// both ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// DedupLines splits text on line breaks, trims each line, drops empty lines
// and exact duplicates (keeping the first occurrence) and rejoins with "\n".
func DedupLines(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// SplitSentences normalizes text and splits it after every '.', '!' or '?'
// that is followed by whitespace. The punctuation stays with its sentence.
func SplitSentences(text string) []string {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next >= len(text) {
			break
		}
		nr, _ := utf8.DecodeRuneInString(text[next:])
		if !unicode.IsSpace(nr) {
			continue
		}
		sentences = append(sentences, text[start:next])
		start = next + utf8.RuneLen(nr)
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// ClampSentences keeps the first maxSentences sentences of text, joined by
// single spaces.
func ClampSentences(text string, maxSentences int) string {
	if maxSentences <= 0 {
		return ""
	}
	sentences := SplitSentences(text)
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	return strings.Join(sentences, " ")
}

// Summarize returns the first maxSentences sentences of text, truncated to
// maxRunes, with "..." appended when sentences were left out.
func Summarize(text string, maxSentences, maxRunes int) string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	more := len(sentences) > maxSentences
	if more {
		sentences = sentences[:maxSentences]
	}
	summary := Truncate(strings.Join(sentences, " "), maxRunes)
	if more {
		summary += "..."
	}
	return summary
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// RuneLen is the character count used by every length bound in the module.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Between reports whether the rune length of s is strictly between lo and hi.
func Between(s string, lo, hi int) bool {
	n := RuneLen(s)
	return n > lo && n < hi
}
