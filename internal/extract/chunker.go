package extract

import (
	"strings"
	"unicode/utf8"
)

// splitText packs whitespace-separated words into chunks of at most maxChunk
// characters. Each chunk after the first repeats up to overlap characters of
// trailing words from its predecessor. Words longer than maxChunk are cut.
func splitText(text string, maxChunk, overlap int) []string {
	words := splitLongWords(strings.Fields(text), maxChunk)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end, size := start, 0
		for end < len(words) {
			add := utf8.RuneCountInString(words[end])
			if end > start {
				add++
			}
			if size+add > maxChunk && end > start {
				break
			}
			size += add
			end++
		}

		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}

		next, carried := end, 0
		for next-1 > start {
			l := utf8.RuneCountInString(words[next-1]) + 1
			if carried+l > overlap {
				break
			}
			carried += l
			next--
		}
		start = next
	}
	return chunks
}

func splitLongWords(words []string, maxChunk int) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		runes := []rune(w)
		for len(runes) > maxChunk {
			out = append(out, string(runes[:maxChunk]))
			runes = runes[maxChunk:]
		}
		out = append(out, string(runes))
	}
	return out
}
