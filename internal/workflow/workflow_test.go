package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/baterms/chatbot/internal/knowledge"
	"github.com/baterms/chatbot/internal/language"
	"github.com/baterms/chatbot/internal/llm"
	"github.com/baterms/chatbot/internal/vectorindex"
)

// stubProvider returns a fixed completion, or an error when fail is set.
type stubProvider struct {
	content string
	fail    bool
	calls   int
	lastReq llm.CompletionRequest
}

func (p *stubProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	p.lastReq = req
	if p.fail {
		return nil, errors.New("provider down")
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}

func (p *stubProvider) Name() string { return "stub" }

func TestRoleAnalyzerInfersFromKeywords(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"How do I list a property on the platform?", "landlord"},
		{"I am looking for an apartment downtown", "tenant"},
		{"As admin, how do I verify listing submissions?", "admin"},
		{"Hello there", DefaultRole},
		{"", DefaultRole},
	}
	for _, tt := range tests {
		state := NewChatState(tt.message, language.English)
		if err := (RoleAnalyzer{}).Run(context.Background(), state); err != nil {
			t.Fatalf("Run(%q): %v", tt.message, err)
		}
		if got := state.Metadata[MetaInferredRole]; got != tt.want {
			t.Errorf("message %q: inferred role = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestQueryDecomposerParsesCommaList(t *testing.T) {
	provider := &stubProvider{content: "what is pay-per-post, how much does listing cost"}
	d := &QueryDecomposer{Provider: provider}

	state := NewChatState("How does pay-per-post work and what does it cost?", language.English)
	if err := d.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"what is pay-per-post", "how much does listing cost"}
	if len(state.SubQueries) != len(want) {
		t.Fatalf("got %d sub-queries %v, want %d", len(state.SubQueries), state.SubQueries, len(want))
	}
	for i := range want {
		if state.SubQueries[i] != want[i] {
			t.Errorf("sub-query %d = %q, want %q", i, state.SubQueries[i], want[i])
		}
	}
}

func TestQueryDecomposerCapsAtThree(t *testing.T) {
	provider := &stubProvider{content: "a, b, c, d, e"}
	d := &QueryDecomposer{Provider: provider}

	state := NewChatState("long question", language.English)
	if err := d.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(state.SubQueries) != maxSubQueries {
		t.Fatalf("got %d sub-queries, want %d", len(state.SubQueries), maxSubQueries)
	}
}

func TestQueryDecomposerFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
	}{
		{"provider error", &stubProvider{fail: true}},
		{"empty response", &stubProvider{content: "   "}},
		{"nil provider", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &QueryDecomposer{Provider: tt.provider}
			state := NewChatState("original question", language.English)
			if err := d.Run(context.Background(), state); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(state.SubQueries) != 1 || state.SubQueries[0] != "original question" {
				t.Errorf("sub-queries = %v, want the original message alone", state.SubQueries)
			}
		})
	}
}

func TestContextRetrieverDeduplicatesByContent(t *testing.T) {
	shared := knowledge.NewDocument("Landlords pay only once to list a property.", nil)
	index := newTestIndex(t, []knowledge.Document{
		shared,
		knowledge.NewDocument("Tenants browse listings for free.", nil),
	})

	r := &ContextRetriever{Index: index, K: 5, Threshold: 0}
	state := NewChatState("pay-per-post", language.English)
	// Two sub-queries that both hit the same documents.
	state.SubQueries = []string{"listing fee", "posting cost"}

	if err := r.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Count(state.Context, shared.Content); got != 1 {
		t.Errorf("shared document appears %d times in context, want exactly 1\ncontext:\n%s", got, state.Context)
	}
	if state.Metadata[MetaRetrievedDocs] != "2" {
		t.Errorf("retrieved docs metadata = %q, want %q", state.Metadata[MetaRetrievedDocs], "2")
	}
	if state.Metadata[MetaRetrievalMethod] != "vector_similarity" {
		t.Errorf("retrieval method metadata = %q", state.Metadata[MetaRetrievalMethod])
	}
}

func TestContextRetrieverUsesLanguageHeader(t *testing.T) {
	index := newTestIndex(t, []knowledge.Document{
		knowledge.NewDocument("የኪራይ ንብረት መረጃ", nil),
	})
	r := &ContextRetriever{Index: index, K: 3, Threshold: 0}

	state := NewChatState("ኪራይ", language.Amharic)
	state.SubQueries = []string{"ኪራይ"}
	if err := r.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(state.Context, language.ContextHeader(language.Amharic)) {
		t.Errorf("context does not start with Amharic header:\n%s", state.Context)
	}
}

func TestContextRetrieverAbsorbsSearchFailure(t *testing.T) {
	// An index that was never built returns an error from every search.
	index := vectorindex.New(newStubEmbedder(8))
	r := &ContextRetriever{Index: index, K: 5, Threshold: 0}

	state := NewChatState("anything", language.English)
	state.SubQueries = []string{"anything"}
	if err := r.Run(context.Background(), state); err != nil {
		t.Fatalf("Run should absorb search failures, got %v", err)
	}
	if state.Context != "" {
		t.Errorf("context = %q, want empty on search failure", state.Context)
	}
	if state.Metadata[MetaRetrievedDocs] != "0" {
		t.Errorf("retrieved docs metadata = %q, want %q", state.Metadata[MetaRetrievedDocs], "0")
	}
}

func TestContextRetrieverGoesThroughCache(t *testing.T) {
	index := newTestIndex(t, []knowledge.Document{
		knowledge.NewDocument("Cached content.", nil),
	})
	cache := vectorindex.NewSearchCache(16)
	r := &ContextRetriever{Index: index, Cache: cache, K: 3, Threshold: 0}

	state := NewChatState("cached", language.English)
	state.SubQueries = []string{"cached"}
	if err := r.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("cache length = %d, want 1", cache.Len())
	}
}

func TestResponseGeneratorBuildsPrompt(t *testing.T) {
	provider := &stubProvider{content: "  Here is the answer.  "}
	g := &ResponseGenerator{Provider: provider, Model: "test-model"}

	state := NewChatState("How does pay-per-post work?", language.English)
	state.Context = language.ContextHeader(language.English) + "\n\n- Landlords pay once.\n"
	state.Metadata[MetaInferredRole] = "landlord"
	state.History = []HistoryEntry{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}

	if err := g.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Response != "Here is the answer." {
		t.Errorf("response = %q, want trimmed content", state.Response)
	}

	msgs := provider.lastReq.Messages
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want system + 2 history + user", len(msgs))
	}
	system := msgs[0]
	if system.Role != llm.RoleSystem {
		t.Errorf("first message role = %q, want system", system.Role)
	}
	if !strings.Contains(system.Content, "Landlords pay once.") {
		t.Errorf("system prompt missing retrieved context:\n%s", system.Content)
	}
	if !strings.Contains(system.Content, "landlord") {
		t.Errorf("system prompt missing inferred role:\n%s", system.Content)
	}
	if msgs[2].Role != llm.RoleAssistant {
		t.Errorf("history assistant entry mapped to role %q", msgs[2].Role)
	}
	if last := msgs[len(msgs)-1]; last.Role != llm.RoleUser || last.Content != state.UserMessage {
		t.Errorf("final message = %+v, want the user message", last)
	}
}

func TestResponseGeneratorPropagatesFailure(t *testing.T) {
	g := &ResponseGenerator{Provider: &stubProvider{fail: true}}
	state := NewChatState("question", language.English)
	if err := g.Run(context.Background(), state); err == nil {
		t.Fatal("expected error from failing provider")
	}
	if state.Response != "" {
		t.Errorf("response = %q, want empty after failure", state.Response)
	}
}

func TestMemoryUpdaterTruncatesHistory(t *testing.T) {
	state := NewChatState("q", language.English)
	m := &MemoryUpdater{}

	for i := 0; i < 8; i++ {
		state.UserMessage = "question"
		state.Response = "answer"
		if err := m.Run(context.Background(), state); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	if len(state.History) != HistoryLimit {
		t.Errorf("history length = %d, want %d", len(state.History), HistoryLimit)
	}
	if state.Metadata[MetaTimestamp] == "" {
		t.Error("timestamp metadata not set")
	}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) Stage {
		return stageFunc{name: name, fn: func(_ context.Context, _ *ChatState) error {
			order = append(order, name)
			return nil
		}}
	}
	p := NewPipeline(mk("a"), mk("b"), mk("c"), mk("d"), mk("e"))
	if err := p.Run(context.Background(), NewChatState("m", language.English)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "a,b,c,d,e"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("stage order = %s, want %s", got, want)
	}
}

func TestPipelineStopsAtFirstError(t *testing.T) {
	var order []string
	ok := func(name string) Stage {
		return stageFunc{name: name, fn: func(_ context.Context, _ *ChatState) error {
			order = append(order, name)
			return nil
		}}
	}
	boom := stageFunc{name: "boom", fn: func(_ context.Context, _ *ChatState) error {
		return errors.New("boom")
	}}
	p := NewPipeline(ok("a"), ok("b"), boom, ok("d"), ok("e"))
	err := p.Run(context.Background(), NewChatState("m", language.English))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v, want wrapped stage name", err)
	}
	if got := strings.Join(order, ","); got != "a,b" {
		t.Errorf("stages run before failure = %s, want a,b", got)
	}
}

func TestTruncatePreservesRuneBoundaries(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten chars!", 18, "exactly ten chars!"},
		{"abcdefghij", 5, "abcde..."},
		{"ኪራይ ቤት እፈልጋለሁ", 5, "ኪራይ ቤ..."},
		{"ኪራይ", 10, "ኪራይ"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

type stageFunc struct {
	name string
	fn   func(context.Context, *ChatState) error
}

func (s stageFunc) Name() string                                 { return s.name }
func (s stageFunc) Run(ctx context.Context, st *ChatState) error { return s.fn(ctx, st) }

// stubEmbedder produces deterministic vectors from character counts so
// identical texts always embed identically.
type stubEmbedder struct {
	dims int
}

func newStubEmbedder(dims int) *stubEmbedder { return &stubEmbedder{dims: dims} }

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dims)
		for j, r := range text {
			v[(j+int(r))%e.dims] += float32(r%13) + 1
		}
		v[0] += 1 // never the zero vector
		vecs[i] = v
	}
	return vecs, nil
}

func (e *stubEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *stubEmbedder) Dimensions() int { return e.dims }
func (e *stubEmbedder) Name() string    { return "stub" }

func newTestIndex(t *testing.T, docs []knowledge.Document) *vectorindex.Index {
	t.Helper()
	index := vectorindex.New(newStubEmbedder(16))
	if err := index.Build(context.Background(), docs); err != nil {
		t.Fatalf("building test index: %v", err)
	}
	return index
}
