// Package chunk segments a Conversation's full text into ordered,
// non-overlapping chunks sized for embedding, split at paragraph or
// sentence boundaries.
package chunk

import (
	"strings"
	"time"
	"unicode"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

// Default chunk size bounds in characters.
const (
	DefaultMinChars = 500
	DefaultMaxChars = 1500
)

// Split segments text into ordered Chunks for conversationID, each sized
// between minChars and maxChars where possible. Whitespace-only input
// yields zero chunks.
func Split(conversationID, source, title, text string, conversationDate *time.Time, minChars, maxChars int) []domain.Chunk {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	units := splitUnits(text)
	if len(units) == 0 {
		return nil
	}

	var texts []string
	var buf strings.Builder
	flush := func() {
		s := strings.TrimSpace(buf.String())
		if s != "" {
			texts = append(texts, s)
		}
		buf.Reset()
	}

	for _, u := range units {
		if buf.Len() > 0 && buf.Len()+len(u) > maxChars {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(u)
		if buf.Len() >= minChars && buf.Len() >= maxChars {
			flush()
		}
	}
	flush()

	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			ConversationID: conversationID,
			Source:         source,
			Title:          title,
			ChunkText:      t,
			ChunkIndex:     i,
			TotalChunks:    len(texts),
		}
		chunks[i].ConversationDate = conversationDate
	}
	return chunks
}

// splitUnits splits text into paragraphs, then further splits any paragraph
// longer than DefaultMaxChars into sentences, so a long paragraph is not cut
// mid-sentence.
func splitUnits(text string) []string {
	var units []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= DefaultMaxChars {
			units = append(units, para)
			continue
		}
		units = append(units, splitSentences(para)...)
	}
	return units
}

// splitSentences splits on sentence-terminal punctuation followed by
// whitespace or end of string.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			nextIsSpace := !atEnd && unicode.IsSpace(runes[i+1])
			if atEnd || nextIsSpace {
				if s := strings.TrimSpace(cur.String()); s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
