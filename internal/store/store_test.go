package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/winterbreak/internal/store"
	"github.com/nhle/winterbreak/tests/testutil"
)

func TestSQLiteStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "a", "2"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil || got != "2" {
		t.Fatalf("Get(a) = %q, %v; want 2", got, err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("after delete err = %v", err)
	}
}

func TestSQLiteStoreKeysAndClearCache(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	for _, k := range []string{store.CacheKey("habits"), store.CacheKey("progress"), store.KeySchedule} {
		if err := s.Set(ctx, k, "{}"); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.Keys(ctx, store.CachePrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "cache:habits" || keys[1] != "cache:progress" {
		t.Fatalf("Keys = %v", keys)
	}

	n, err := s.ClearCache(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ClearCache = %d, %v", n, err)
	}
	if _, err := s.Get(ctx, store.KeySchedule); err != nil {
		t.Fatalf("schedule removed by ClearCache: %v", err)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	l := testutil.NewTestLocal(t)

	type rec struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var out rec
	if l.Load("rec", &out) {
		t.Fatal("Load on empty store reported true")
	}

	l.Save("rec", rec{Name: "x", Count: 3})
	if !l.Load("rec", &out) || out.Name != "x" || out.Count != 3 {
		t.Fatalf("Load = %+v", out)
	}

	l.Remove("rec")
	if l.Load("rec", &out) {
		t.Fatal("Load after Remove reported true")
	}
}

func TestLocalSwallowsBadValues(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	l := store.NewLocal(s, testutil.DiscardLogger())

	if err := s.Set(ctx, "bad", "{not json"); err != nil {
		t.Fatal(err)
	}
	var v map[string]int
	if l.Load("bad", &v) {
		t.Fatal("Load decoded corrupt JSON")
	}
	if _, ok := l.LoadRaw("bad"); ok {
		t.Fatal("LoadRaw accepted corrupt JSON")
	}

	// Unencodable values are logged, never panicked on.
	l.Save("chan", make(chan int))
	if _, err := s.Get(ctx, "chan"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unencodable value was written: %v", err)
	}
}
