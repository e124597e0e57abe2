package cache

import (
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	c := New(time.Hour)

	params := map[string]any{"name": "metformin", "limit": 3}
	rows := []map[string]any{{"name": "Metformin"}}

	if _, ok := c.Get("MATCH (m) RETURN m", params); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("MATCH (m) RETURN m", params, rows)

	got, ok := c.Get("MATCH (m) RETURN m", params)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if len(got) != 1 || got[0]["name"] != "Metformin" {
		t.Fatalf("unexpected rows: %v", got)
	}
}

func TestParamSensitivity(t *testing.T) {
	c := New(time.Hour)
	c.Set("q", map[string]any{"a": 1}, []map[string]any{{"x": 1}})

	if _, ok := c.Get("q", map[string]any{"a": 2}); ok {
		t.Error("different params must not hit")
	}
	if _, ok := c.Get("q2", map[string]any{"a": 1}); ok {
		t.Error("different query must not hit")
	}
	if _, ok := c.Get("q", map[string]any{"a": 1}); !ok {
		t.Error("same query and params must hit")
	}
}

func TestKeyOrderIndependence(t *testing.T) {
	c := New(time.Hour)
	c.Set("q", map[string]any{"a": 1, "b": 2}, []map[string]any{{"x": 1}})

	// Map iteration order must not affect the digest.
	for i := 0; i < 10; i++ {
		if _, ok := c.Get("q", map[string]any{"b": 2, "a": 1}); !ok {
			t.Fatal("equivalent parameter sets must produce the same key")
		}
	}
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute)
	clock := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set("q", nil, []map[string]any{{"x": 1}})

	clock = clock.Add(59 * time.Second)
	if _, ok := c.Get("q", nil); !ok {
		t.Fatal("entry expired before TTL elapsed")
	}

	clock = clock.Add(2 * time.Second)
	if _, ok := c.Get("q", nil); ok {
		t.Fatal("expected miss after TTL")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry must be evicted on get, size=%d", c.Size())
	}
}

func TestCleanupExpired(t *testing.T) {
	c := New(time.Minute)
	clock := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set("old", nil, nil)
	clock = clock.Add(30 * time.Second)
	c.Set("fresh", nil, nil)
	clock = clock.Add(31 * time.Second)

	if removed := c.CleanupExpired(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Size() != 1 {
		t.Fatalf("expected 1 remaining, got %d", c.Size())
	}
	if _, ok := c.Get("fresh", nil); !ok {
		t.Error("fresh entry must survive cleanup")
	}
}

func TestClear(t *testing.T) {
	c := New(time.Hour)
	c.Set("a", nil, nil)
	c.Set("b", nil, nil)
	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, size=%d", c.Size())
	}
}
