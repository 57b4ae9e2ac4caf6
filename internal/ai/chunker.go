package ai

import "strings"

// TruncationMarker is appended to a sentence that had to be cut because
// it alone exceeded the chunk size.
const TruncationMarker = "..."

// SplitSnippets splits text into sentence-respecting chunks of at most
// maxLength characters. Sentences are accumulated greedily; a sentence
// that cannot fit even alone is hard-truncated to maxLength characters
// plus the truncation marker and emitted as its own chunk. Text that
// already fits comes back as a single untouched chunk. The function is
// pure: same input, same output.
func SplitSnippets(text string, maxLength int) []string {
	if maxLength <= 0 || len(strings.TrimSpace(text)) == 0 {
		return nil
	}
	if runeLen(text) <= maxLength {
		return []string{text}
	}

	var chunks []string
	var current string
	for _, sentence := range splitSentences(text) {
		s := sentence + "."
		if current != "" {
			if runeLen(current)+1+runeLen(s) <= maxLength {
				current += " " + s
				continue
			}
			chunks = append(chunks, current)
			current = ""
		}
		if runeLen(s) > maxLength {
			chunks = append(chunks, truncateRunes(s, maxLength)+TruncationMarker)
			continue
		}
		current = s
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitSentences cuts on terminal punctuation, dropping empty and
// whitespace-only fragments. Terminators are consumed; SplitSnippets
// re-appends a single period per sentence.
func splitSentences(text string) []string {
	var sentences []string
	var buf strings.Builder
	flush := func() {
		s := strings.TrimSpace(buf.String())
		buf.Reset()
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			flush()
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return sentences
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
