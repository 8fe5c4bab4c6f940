package loads

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/veldt/imagecache/internal/imagetype"
)

func TestGetOrCreate(t *testing.T) {
	t.Parallel()

	a := New()

	key, pl, created := a.GetOrCreate("https://example.com/a.png", true)
	if !created {
		t.Fatal("GetOrCreate() created = false on first request")
	}
	if pl == nil || key == 0 {
		t.Fatalf("GetOrCreate() = (%d, %v), want a key and a load", key, pl)
	}
	if pl.URL() != "https://example.com/a.png" {
		t.Fatalf("URL() = %q", pl.URL())
	}

	key2, pl2, created := a.GetOrCreate("https://example.com/a.png", true)
	if created {
		t.Fatal("GetOrCreate() created = true on second request")
	}
	if key2 != key || pl2 != pl {
		t.Fatalf("second GetOrCreate() = (%d, %p), want (%d, %p)", key2, pl2, key, pl)
	}
}

func TestGetOrCreateDenied(t *testing.T) {
	t.Parallel()

	a := New()

	_, pl, created := a.GetOrCreate("https://example.com/a.png", false)
	if pl != nil || created {
		t.Fatalf("GetOrCreate(canRequest=false) = (%v, %v), want no load", pl, created)
	}
	if !a.IsEmpty() {
		t.Fatal("IsEmpty() = false after denied request")
	}

	// A denied miss must not have reserved anything for a later requester.
	_, pl, created = a.GetOrCreate("https://example.com/a.png", true)
	if pl == nil || !created {
		t.Fatal("GetOrCreate(canRequest=true) should create after a denied miss")
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	t.Parallel()

	const callers = 64
	a := New()

	var created atomic.Int64
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, pl, c := a.GetOrCreate("https://example.com/race.png", true)
			if pl == nil {
				t.Error("GetOrCreate() returned no load with canRequest=true")
				return
			}
			if c {
				created.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if created.Load() != 1 {
		t.Fatalf("created %d loads for one url, want 1", created.Load())
	}
	if a.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", a.Len())
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	a := New()
	key, pl, _ := a.GetOrCreate("https://example.com/a.png", true)

	removed, ok := a.Remove(key)
	if !ok || removed != pl {
		t.Fatalf("Remove(%d) = (%p, %v), want (%p, true)", key, removed, ok, pl)
	}
	if !a.IsEmpty() {
		t.Fatal("IsEmpty() = false after Remove")
	}
	if _, ok := a.Get(key); ok {
		t.Fatal("Get() found a removed key")
	}

	// Removal must free the url for a fresh request cycle.
	_, _, created := a.GetOrCreate("https://example.com/a.png", true)
	if !created {
		t.Fatal("GetOrCreate() did not create after Remove")
	}
}

func TestRemoveUnknownKey(t *testing.T) {
	t.Parallel()

	a := New()
	if _, ok := a.Remove(imagetype.Key(42)); ok {
		t.Fatal("Remove() of an unknown key reported ok")
	}
}

func TestIndexConsistencyUnderChurn(t *testing.T) {
	t.Parallel()

	const workers = 8
	urls := []string{"u1", "u2", "u3", "u4", "u5"}
	a := New()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				url := urls[i%len(urls)]
				key, pl, _ := a.GetOrCreate(url, true)
				if pl != nil && i%3 == 0 {
					a.Remove(key)
				}
				// Len and IsEmpty panic if the indices ever diverge.
				_ = a.Len()
				_ = a.IsEmpty()
			}
		}()
	}
	wg.Wait()

	if got := a.Len(); got > len(urls) {
		t.Fatalf("Len() = %d, want <= %d (at most one load per url)", got, len(urls))
	}
}

func TestPendingLoadComplete(t *testing.T) {
	t.Parallel()

	a := New()
	_, pl, _ := a.GetOrCreate("https://example.com/a.png", true)
	pl.Append([]byte("ab"))
	pl.Append([]byte("cd"))

	frozen, already := pl.Complete(nil)
	if already {
		t.Fatal("Complete() already = true on first call")
	}
	if string(frozen) != "abcd" {
		t.Fatalf("Complete() frozen = %q, want %q", frozen, "abcd")
	}
	if string(pl.FrozenBytes()) != "abcd" {
		t.Fatalf("FrozenBytes() = %q, want %q", pl.FrozenBytes(), "abcd")
	}

	if _, already := pl.Complete(errors.New("late")); !already {
		t.Fatal("second Complete() already = false")
	}

	snap := pl.Snapshot()
	if !snap.Done || snap.Err != nil {
		t.Fatalf("Snapshot() = %+v, want done with nil err", snap)
	}
}

func TestPendingLoadAppendAfterSuccessPanics(t *testing.T) {
	t.Parallel()

	a := New()
	_, pl, _ := a.GetOrCreate("https://example.com/a.png", true)
	pl.Complete(nil)

	defer func() {
		if recover() == nil {
			t.Fatal("Append after successful completion did not panic")
		}
	}()
	pl.Append([]byte("late"))
}

func TestPendingLoadMetadataLastWriteWins(t *testing.T) {
	t.Parallel()

	a := New()
	_, pl, _ := a.GetOrCreate("https://example.com/a.png", true)

	if pl.Snapshot().HasMeta {
		t.Fatal("Snapshot() reported metadata before delivery")
	}
	pl.SetMetadata(imagetype.Metadata{Width: 1, Height: 1})
	pl.SetMetadata(imagetype.Metadata{Width: 640, Height: 480})

	snap := pl.Snapshot()
	if !snap.HasMeta || snap.Metadata.Width != 640 || snap.Metadata.Height != 480 {
		t.Fatalf("Snapshot() metadata = %+v, want 640x480", snap.Metadata)
	}
}
