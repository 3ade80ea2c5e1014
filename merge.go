package pdfaf

import "strings"

// paragraphDelimiters, strongest boundary first. The merger splices extra
// content at the last occurrence of the strongest boundary it can find.
var paragraphDelimiters = []string{"\n\n\n", "\n\n"}

// MergeTextAndExtras interleaves auxiliary content (recognized image text,
// rendered tables) with a page's body text at a paragraph boundary, so the
// extras land where the source material sat instead of dangling at the end.
// When the text has no paragraph boundary at all, the extras are appended
// after a blank line. With no usable extras the text comes back unchanged.
func MergeTextAndExtras(extras []string, text string) string {
	if merged, ok := spliceExtras(extras, text, true); ok {
		return merged
	}
	joined := joinNonEmpty(extras, "\n\n")
	if joined == "" {
		return text
	}
	return text + "\n\n" + joined
}

// spliceExtras inserts the extras at the last paragraph boundary of text.
// With lookBack set it first retries on the text before that boundary, so a
// short trailing paragraph (a footer, a page number) stays at the very end.
// The boolean reports whether a non-empty merge was produced.
func spliceExtras(extras []string, text string, lookBack bool) (string, bool) {
	if len(extras) == 0 {
		return text, text != ""
	}
	for _, delim := range paragraphDelimiters {
		pos := strings.LastIndex(text, delim)
		if pos < 0 {
			continue
		}
		if lookBack {
			if prefix, ok := spliceExtras(extras, text[:pos], false); ok {
				return prefix + text[pos:], true
			}
		}
		joined := joinNonEmpty(extras, "\n\n")
		if joined != "" {
			joined = delim + joined
		}
		merged := text[:pos] + joined + text[pos:]
		return merged, merged != ""
	}
	return "", false
}

func joinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
