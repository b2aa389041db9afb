package vectorindex

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestCacheIdempotence(t *testing.T) {
	cache := NewSearchCache(8)
	key := CacheKey{Query: "how does pay-per-post work", Language: "english", K: 5, Threshold: 0.3}

	calls := 0
	compute := func() ([]Result, error) {
		calls++
		return []Result{{Score: 0.9, Row: 2}}, nil
	}

	first, err := cache.GetOrCompute(key, compute)
	if err != nil {
		t.Fatalf("first GetOrCompute: %v", err)
	}
	second, err := cache.GetOrCompute(key, compute)
	if err != nil {
		t.Fatalf("second GetOrCompute: %v", err)
	}

	if calls != 1 {
		t.Errorf("compute invoked %d times, want 1", calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached results differ: %+v vs %+v", first, second)
	}
}

func TestCacheKeyComponentsAreDistinct(t *testing.T) {
	cache := NewSearchCache(16)
	calls := 0
	compute := func() ([]Result, error) {
		calls++
		return nil, nil
	}

	keys := []CacheKey{
		{Query: "q", Language: "english", K: 5, Threshold: 0.3},
		{Query: "q", Language: "amharic", K: 5, Threshold: 0.3},
		{Query: "q", Language: "english", K: 3, Threshold: 0.3},
		{Query: "q", Language: "english", K: 5, Threshold: 0.5},
		{Query: "other", Language: "english", K: 5, Threshold: 0.3},
	}
	for _, k := range keys {
		if _, err := cache.GetOrCompute(k, compute); err != nil {
			t.Fatalf("GetOrCompute(%v): %v", k, err)
		}
	}

	if calls != len(keys) {
		t.Errorf("compute invoked %d times, want %d distinct keys", calls, len(keys))
	}
}

func TestCacheNeverStoresFailures(t *testing.T) {
	cache := NewSearchCache(8)
	key := CacheKey{Query: "transient", Language: "english", K: 5}

	boom := errors.New("search backend down")
	if _, err := cache.GetOrCompute(key, func() ([]Result, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("failure was cached: len=%d", cache.Len())
	}

	// The next identical request retries and succeeds.
	results, err := cache.GetOrCompute(key, func() ([]Result, error) {
		return []Result{{Score: 0.5}}, nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("retry results: %+v", results)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewSearchCache(2)
	mk := func(q string) CacheKey { return CacheKey{Query: q, Language: "english", K: 1} }

	calls := map[string]int{}
	compute := func(q string) func() ([]Result, error) {
		return func() ([]Result, error) {
			calls[q]++
			return nil, nil
		}
	}

	cache.GetOrCompute(mk("a"), compute("a"))
	cache.GetOrCompute(mk("b"), compute("b"))
	cache.GetOrCompute(mk("a"), compute("a")) // refresh a
	cache.GetOrCompute(mk("c"), compute("c")) // evicts b

	cache.GetOrCompute(mk("a"), compute("a"))
	cache.GetOrCompute(mk("b"), compute("b"))

	if calls["a"] != 1 {
		t.Errorf("a computed %d times, want 1", calls["a"])
	}
	if calls["b"] != 2 {
		t.Errorf("b computed %d times, want 2 (evicted then recomputed)", calls["b"])
	}
	if cache.Len() != 2 {
		t.Errorf("cache len: got %d, want capacity 2", cache.Len())
	}
}

func TestCachePurge(t *testing.T) {
	cache := NewSearchCache(8)
	for i := 0; i < 4; i++ {
		key := CacheKey{Query: fmt.Sprintf("q%d", i), Language: "english", K: 1}
		cache.GetOrCompute(key, func() ([]Result, error) { return nil, nil })
	}
	if cache.Len() != 4 {
		t.Fatalf("len before purge: %d", cache.Len())
	}
	cache.Purge()
	if cache.Len() != 0 {
		t.Errorf("len after purge: %d", cache.Len())
	}
}
