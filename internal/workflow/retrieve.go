package workflow

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/baterms/chatbot/internal/language"
	"github.com/baterms/chatbot/internal/vectorindex"
)

// ContextRetriever runs one similarity search per sub-query (through the
// search cache), merges the results, deduplicates by exact content in
// first-seen order, and formats them under a language-specific header. A
// search failure degrades to empty context instead of aborting.
type ContextRetriever struct {
	Index     *vectorindex.Index
	Cache     *vectorindex.SearchCache
	K         int
	Threshold float32
}

func (r *ContextRetriever) Name() string { return "context_retriever" }

func (r *ContextRetriever) Run(ctx context.Context, state *ChatState) error {
	start := time.Now()

	subQueries := state.SubQueries
	if len(subQueries) == 0 {
		subQueries = []string{state.UserMessage}
	}

	var merged []vectorindex.Result
	for _, sub := range subQueries {
		query := enhanceQuery(sub, state.Language)
		results, err := r.search(ctx, query, state.Language)
		if err != nil {
			log.Printf("workflow: similarity search failed for %q: %v", sub, err)
			continue
		}
		merged = append(merged, results...)
	}

	unique := dedupeByContent(merged)

	state.Metadata[MetaRetrievedDocs] = strconv.Itoa(len(unique))
	state.Metadata[MetaRetrievalMethod] = "vector_similarity"

	if len(unique) == 0 {
		state.Context = ""
		return nil
	}
	state.Context = formatContext(unique, state.Language)

	log.Printf("workflow: retrieved %d documents for %q (language=%s) in %s",
		len(unique), truncate(state.UserMessage, 50), state.Language, time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *ContextRetriever) search(ctx context.Context, query, lang string) ([]vectorindex.Result, error) {
	key := vectorindex.CacheKey{Query: query, Language: lang, K: r.K, Threshold: r.Threshold}
	if r.Cache == nil {
		return r.Index.Search(ctx, query, r.K, r.Threshold)
	}
	return r.Cache.GetOrCompute(key, func() ([]vectorindex.Result, error) {
		return r.Index.Search(ctx, query, r.K, r.Threshold)
	})
}

// enhanceQuery appends rental-domain vocabulary for the language, biasing
// retrieval toward platform content.
func enhanceQuery(query, lang string) string {
	return query + " " + strings.Join(language.DomainTerms(lang), " ")
}

// dedupeByContent keeps the first occurrence of each exact document
// content, preserving first-seen order.
func dedupeByContent(results []vectorindex.Result) []vectorindex.Result {
	seen := make(map[string]struct{}, len(results))
	var unique []vectorindex.Result
	for _, res := range results {
		if _, ok := seen[res.Document.Content]; ok {
			continue
		}
		seen[res.Document.Content] = struct{}{}
		unique = append(unique, res)
	}
	return unique
}

func formatContext(results []vectorindex.Result, lang string) string {
	var sb strings.Builder
	sb.WriteString(language.ContextHeader(lang))
	sb.WriteString("\n")
	for _, res := range results {
		sb.WriteString("\n- ")
		sb.WriteString(res.Document.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// truncate shortens s to at most n runes for log lines, never cutting a
// character in half.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
