package chunker

import (
	"strings"
	"unicode/utf8"

	"guardian/internal/domain"
	"guardian/internal/fingerprint"
)

// CharacterChunker splits page text into character-bounded chunks with overlap.
// Lines are kept whole where possible, then words, then raw rune windows for
// pathological tokens, so chunks never exceed the configured size.
type CharacterChunker struct {
	size    int
	overlap int
}

func NewCharacterChunker(size, overlap int) *CharacterChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &CharacterChunker{size: size, overlap: overlap}
}

func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	idx := 0
	for _, page := range document.Pages {
		for _, span := range c.split(page.Text) {
			text := strings.TrimSpace(span)
			if text == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				Source:      document.Path,
				Page:        page.Number,
				Index:       idx,
				Text:        text,
				Fingerprint: fingerprint.Sum(text),
			})
			idx++
		}
	}
	return chunks, nil
}

// split packs atomic units into spans of at most size runes, seeding each
// span after the first with the previous span's trailing units up to overlap.
func (c *CharacterChunker) split(text string) []string {
	units := c.units(text)
	var spans []string
	var cur []string
	curLen, freshLen := 0, 0
	for _, u := range units {
		l := utf8.RuneCountInString(u)
		if curLen > 0 && curLen+l > c.size {
			if freshLen > 0 {
				spans = append(spans, strings.Join(cur, ""))
			}
			cur, curLen = c.retainOverlap(cur)
			freshLen = 0
			if curLen+l > c.size {
				cur, curLen = nil, 0
			}
		}
		cur = append(cur, u)
		curLen += l
		freshLen += l
	}
	if freshLen > 0 {
		spans = append(spans, strings.Join(cur, ""))
	}
	return spans
}

// units cuts text into pieces no longer than size runes, preferring line
// boundaries, then word boundaries. Concatenating the units reproduces the
// input exactly.
func (c *CharacterChunker) units(text string) []string {
	var out []string
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= c.size {
			out = append(out, line)
			continue
		}
		for _, word := range strings.SplitAfter(line, " ") {
			if word == "" {
				continue
			}
			if utf8.RuneCountInString(word) <= c.size {
				out = append(out, word)
				continue
			}
			r := []rune(word)
			for start := 0; start < len(r); start += c.size {
				out = append(out, string(r[start:min(start+c.size, len(r))]))
			}
		}
	}
	return out
}

// retainOverlap returns the trailing units of span totalling at most overlap runes.
func (c *CharacterChunker) retainOverlap(span []string) ([]string, int) {
	keepFrom := len(span)
	kept := 0
	for i := len(span) - 1; i >= 0; i-- {
		l := utf8.RuneCountInString(span[i])
		if kept+l > c.overlap {
			break
		}
		kept += l
		keepFrom = i
	}
	if keepFrom == len(span) {
		return nil, 0
	}
	tail := make([]string, len(span)-keepFrom)
	copy(tail, span[keepFrom:])
	return tail, kept
}
