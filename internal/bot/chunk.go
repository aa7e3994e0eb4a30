package bot

import "unicode/utf8"

// chunkLimit stays below Telegram's 4096-character hard cap to leave
// headroom for transport overhead.
const chunkLimit = 4000

// splitChunks splits text into contiguous substrings of at most limit
// bytes, in order, with no overlap and no loss. Cuts land on rune
// boundaries so a multi-byte character is never torn across chunks.
// Empty text yields no chunks.
func splitChunks(text string, limit int) []string {
	if limit <= 0 {
		limit = chunkLimit
	}
	var chunks []string
	for len(text) > 0 {
		if len(text) <= limit {
			chunks = append(chunks, text)
			break
		}
		end := limit
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == 0 {
			// No rune boundary within the limit (invalid UTF-8); cut raw.
			end = limit
		}
		chunks = append(chunks, text[:end])
		text = text[end:]
	}
	return chunks
}
