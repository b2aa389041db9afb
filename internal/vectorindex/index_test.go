package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/baterms/chatbot/internal/knowledge"
)

// mockEmbedder produces deterministic hash-based vectors so identical texts
// embed identically and similar texts score higher than unrelated ones.
type mockEmbedder struct {
	dims  int
	calls int
	fail  error
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	return vec
}

func doc(content string, tags ...string) knowledge.Document {
	md := map[string]string{}
	for i := 0; i+1 < len(tags); i += 2 {
		md[tags[i]] = tags[i+1]
	}
	return knowledge.NewDocument(content, md)
}

func buildTestIndex(t *testing.T, docs []knowledge.Document) (*Index, *mockEmbedder) {
	t.Helper()
	embedder := newMockEmbedder(64)
	ix := New(embedder)
	if err := ix.Build(context.Background(), docs); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix, embedder
}

func TestSearchBeforeBuild(t *testing.T) {
	ix := New(newMockEmbedder(16))
	if _, err := ix.Search(context.Background(), "anything", 3, 0); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if ix.State() != StateUninitialized {
		t.Errorf("state: got %v, want uninitialized", ix.State())
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	ix := New(newMockEmbedder(16))
	if err := ix.Build(context.Background(), nil); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestRowDocumentAlignment(t *testing.T) {
	var docs []knowledge.Document
	for i := 0; i < 12; i++ {
		docs = append(docs, doc(fmt.Sprintf("UNIQUETAG%02d distinct content body", i), "row", fmt.Sprintf("%d", i)))
	}
	ix, _ := buildTestIndex(t, docs)

	// A query identical to a stored document embeds to the same vector, so
	// the exact match must come back first with its own metadata.
	for i := 0; i < 12; i += 3 {
		query := fmt.Sprintf("UNIQUETAG%02d distinct content body", i)
		results, err := ix.Search(context.Background(), query, 1, 0)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("got %d results, want 1", len(results))
		}
		if results[0].Document.Metadata["row"] != fmt.Sprintf("%d", i) {
			t.Errorf("query for row %d returned document %q", i, results[0].Document.Metadata["row"])
		}
		if results[0].Row != i {
			t.Errorf("row id: got %d, want %d", results[0].Row, i)
		}
		if results[0].Score < 0.999 {
			t.Errorf("exact match score: got %f, want ~1", results[0].Score)
		}
	}
}

func TestTieBreakByRowOrder(t *testing.T) {
	// Identical contents embed identically; ties must resolve by insertion order.
	docs := []knowledge.Document{
		doc("duplicate content", "pos", "first"),
		doc("something else entirely different", "pos", "other"),
		doc("duplicate content", "pos", "second"),
	}
	ix, _ := buildTestIndex(t, docs)

	results, err := ix.Search(context.Background(), "duplicate content", 2, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Row != 0 || results[1].Row != 2 {
		t.Errorf("tie-break rows: got %d,%d want 0,2", results[0].Row, results[1].Row)
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	docs := []knowledge.Document{
		doc("rental property listing fees"),
		doc("tenant search is free of charge"),
		doc("completely unrelated text about weather patterns in the alps"),
		doc("landlord dashboard and profile settings"),
	}
	ix, _ := buildTestIndex(t, docs)

	query := "property listing fees for landlords"
	prev := math.MaxInt
	for _, threshold := range []float32{-1, 0, 0.2, 0.5, 0.9, 1.01} {
		results, err := ix.Search(context.Background(), query, 4, threshold)
		if err != nil {
			t.Fatalf("Search(threshold=%g): %v", threshold, err)
		}
		if len(results) > prev {
			t.Errorf("raising threshold to %g increased result count %d -> %d", threshold, prev, len(results))
		}
		prev = len(results)
	}
}

func TestSearchScoresDescending(t *testing.T) {
	docs := []knowledge.Document{
		doc("alpha"), doc("beta"), doc("gamma"), doc("delta"), doc("epsilon"),
	}
	ix, _ := buildTestIndex(t, docs)

	results, err := ix.Search(context.Background(), "alpha beta", 5, -1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending at %d: %f > %f", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestRebuildReplacesSnapshot(t *testing.T) {
	ix, _ := buildTestIndex(t, []knowledge.Document{doc("old content")})
	if ix.Count() != 1 {
		t.Fatalf("count after first build: %d", ix.Count())
	}

	if err := ix.Build(context.Background(), []knowledge.Document{doc("new one"), doc("new two")}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if ix.Count() != 2 {
		t.Errorf("count after rebuild: got %d, want 2", ix.Count())
	}
	if ix.State() != StateReady {
		t.Errorf("state after rebuild: %v", ix.State())
	}
}

func TestFailedRebuildKeepsServing(t *testing.T) {
	embedder := newMockEmbedder(32)
	ix := New(embedder)
	if err := ix.Build(context.Background(), []knowledge.Document{doc("stable content")}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	embedder.fail = errors.New("upstream down")
	if err := ix.Build(context.Background(), []knowledge.Document{doc("replacement")}); err == nil {
		t.Fatal("expected rebuild failure")
	}
	embedder.fail = nil

	// Old snapshot still answers.
	results, err := ix.Search(context.Background(), "stable content", 1, 0)
	if err != nil {
		t.Fatalf("Search after failed rebuild: %v", err)
	}
	if len(results) != 1 || results[0].Document.Content != "stable content" {
		t.Errorf("unexpected results after failed rebuild: %+v", results)
	}
	if ix.State() != StateReady {
		t.Errorf("state: got %v, want ready", ix.State())
	}
}

func TestPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.bin")
	manifestPath := filepath.Join(dir, "manifest.json")

	docs := []knowledge.Document{
		doc("pay-per-post listing model", "type", "faq"),
		doc("tenant search is free", "type", "faq"),
		doc("supported languages are english amharic afaan oromo", "type", "project_doc"),
		doc("ባለቤቶች ንብረት ለመዘርዘር አንድ ጊዜ ብቻ ይከፍላሉ", "type", "translation"),
	}
	ix, _ := buildTestIndex(t, docs)

	before, err := ix.Search(context.Background(), "listing model fees", 3, -1)
	if err != nil {
		t.Fatalf("Search before persist: %v", err)
	}

	if err := ix.Persist(indexPath, manifestPath); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	restored := New(newMockEmbedder(64))
	ok, err := restored.Load(indexPath, manifestPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load returned false for existing artifacts")
	}
	if restored.Count() != len(docs) {
		t.Errorf("restored count: got %d, want %d", restored.Count(), len(docs))
	}

	after, err := restored.Search(context.Background(), "listing model fees", 3, -1)
	if err != nil {
		t.Fatalf("Search after load: %v", err)
	}

	if len(after) != len(before) {
		t.Fatalf("result count changed: got %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i].Document.Content != before[i].Document.Content {
			t.Errorf("result %d document changed: %q vs %q", i, after[i].Document.Content, before[i].Document.Content)
		}
		if after[i].Row != before[i].Row {
			t.Errorf("result %d row changed: %d vs %d", i, after[i].Row, before[i].Row)
		}
		if diff := math.Abs(float64(after[i].Score - before[i].Score)); diff > 1e-6 {
			t.Errorf("result %d score drifted by %g", i, diff)
		}
		if after[i].Document.Metadata["type"] != before[i].Document.Metadata["type"] {
			t.Errorf("result %d metadata lost", i)
		}
	}
}

func TestLoadMissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	ix := New(newMockEmbedder(16))

	ok, err := ix.Load(filepath.Join(dir, "index.bin"), filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("Load reported success for absent artifacts")
	}
	if ix.Ready() {
		t.Error("index should not be ready after failed load")
	}
}
