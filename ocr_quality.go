package pdfaf

import "strings"

// DefaultOCRMinContent is the minimum character count below which a page is
// considered empty enough to OCR instead.
const DefaultOCRMinContent = 50

// NeedsOCRFallback reports whether extracted text is too short or garbled
// and the rendered page should be recognized instead. It gates the fallback
// so pages with healthy embedded text never pay for a render.
func NeedsOCRFallback(text string, minContentLen int) bool {
	text = strings.TrimSpace(text)

	if len(text) < minContentLen {
		return true
	}
	if hasGarbledWords(text) {
		return true
	}
	return replacementCharRatio(text) > 0.05
}

// hasGarbledWords detects text where many of the first 50 words are single
// characters, the signature of broken extraction spacing.
func hasGarbledWords(text string) bool {
	words := strings.Fields(text)
	if len(words) < 20 {
		return false
	}

	sampleSize := min(50, len(words))
	singleCharWords := 0
	for _, w := range words[:sampleSize] {
		if len(w) == 1 {
			r := rune(w[0])
			// Common standalone characters in formatted text don't count.
			if r != '.' && r != '-' && r != 'X' && r != 'x' && r != 'v' && r != ':' {
				singleCharWords++
			}
		}
	}

	return float64(singleCharWords)/float64(sampleSize) > 0.4
}

// replacementCharRatio returns the fraction of runes that are U+FFFD,
// indicating encoding failures upstream.
func replacementCharRatio(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	count := 0
	total := 0
	for _, r := range text {
		total++
		if r == '�' {
			count++
		}
	}
	return float64(count) / float64(total)
}
