// Package chunker splits raw text into bounded, overlapping segments for
// embedding. Boundaries prefer paragraph and sentence separators before
// falling back to hard character cuts, and each chunk carries the source
// document's metadata so retrieval results stay traceable.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/baterms/chatbot/internal/knowledge"
)

// separators is the split hierarchy, tried in order. The empty string means
// a hard character cut.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Splitter produces chunks no longer than ChunkSize characters where each
// chunk after the first starts with the last ChunkOverlap characters of its
// predecessor.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// New creates a Splitter, substituting defaults for non-positive sizes.
// ChunkOverlap is clamped below ChunkSize.
func New(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// SplitDocuments chunks every document, preserving document order and
// chunk order within each document.
func (s *Splitter) SplitDocuments(docs []knowledge.Document) []knowledge.Document {
	var chunks []knowledge.Document
	for _, doc := range docs {
		chunks = append(chunks, s.SplitDocument(doc)...)
	}
	return chunks
}

// SplitDocument chunks a single document. Metadata is copied verbatim onto
// every chunk.
func (s *Splitter) SplitDocument(doc knowledge.Document) []knowledge.Document {
	spans := s.SplitText(doc.Content)
	chunks := make([]knowledge.Document, 0, len(spans))
	for _, span := range spans {
		chunks = append(chunks, knowledge.Document{Content: span, Metadata: doc.CloneMetadata()})
	}
	return chunks
}

// SplitText splits text into overlapping chunks. The concatenation of each
// chunk's unique span (the part past the copied overlap) reconstructs the
// input exactly.
func (s *Splitter) SplitText(text string) []string {
	if text == "" {
		return nil
	}

	// Unique spans are budgeted at ChunkSize-ChunkOverlap so that a chunk
	// (overlap prefix + unique span) never exceeds ChunkSize.
	budget := s.ChunkSize - s.ChunkOverlap

	pieces := split(text, budget, separators)
	spans := pack(pieces, budget)

	chunks := make([]string, 0, len(spans))
	prev := ""
	for _, span := range spans {
		chunk := tail(prev, s.ChunkOverlap) + span
		chunks = append(chunks, chunk)
		prev = chunk
	}
	return chunks
}

// split recursively breaks text into pieces of at most budget characters,
// trying each separator in turn. Separators stay attached to the preceding
// piece so no characters are lost. All counting and cutting is per rune so
// multibyte scripts never end up torn mid-character.
func split(text string, budget int, seps []string) []string {
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}

	sep := seps[0]
	rest := seps[1:]

	if sep == "" {
		// Hard cut: no separator fits, slice into budget-sized rune runs.
		var out []string
		for utf8.RuneCountInString(text) > budget {
			head, remainder := cutRunes(text, budget)
			out = append(out, head)
			text = remainder
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}

	if !strings.Contains(text, sep) {
		return split(text, budget, rest)
	}

	var out []string
	for _, piece := range splitAfter(text, sep) {
		if utf8.RuneCountInString(piece) <= budget {
			out = append(out, piece)
		} else {
			out = append(out, split(piece, budget, rest)...)
		}
	}
	return out
}

// splitAfter splits text on sep, keeping the separator at the end of each
// piece. Empty pieces are dropped.
func splitAfter(text, sep string) []string {
	var out []string
	for {
		i := strings.Index(text, sep)
		if i < 0 {
			break
		}
		piece := text[:i+len(sep)]
		if piece != "" {
			out = append(out, piece)
		}
		text = text[i+len(sep):]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// pack greedily merges consecutive pieces into spans of at most budget
// characters.
func pack(pieces []string, budget int) []string {
	var spans []string
	var cur strings.Builder
	curRunes := 0
	for _, piece := range pieces {
		pieceRunes := utf8.RuneCountInString(piece)
		if curRunes > 0 && curRunes+pieceRunes > budget {
			spans = append(spans, cur.String())
			cur.Reset()
			curRunes = 0
		}
		cur.WriteString(piece)
		curRunes += pieceRunes
	}
	if cur.Len() > 0 {
		spans = append(spans, cur.String())
	}
	return spans
}

// cutRunes splits s after its n-th rune.
func cutRunes(s string, n int) (head, rest string) {
	for i := range s {
		if n == 0 {
			return s[:i], s[i:]
		}
		n--
	}
	return s, ""
}

// tail returns the last n runes of s, or all of s when shorter.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := len(s); i > 0; {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
		count++
		if count == n {
			return s[i:]
		}
	}
	return s
}
