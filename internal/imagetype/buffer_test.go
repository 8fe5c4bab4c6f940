package imagetype

import (
	"bytes"
	"testing"
)

func TestBufferAppend(t *testing.T) {
	t.Parallel()

	var b Buffer
	b.Append([]byte("hel"))
	b.Append([]byte("lo"))

	if got := b.Bytes(); !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("Bytes() = %q, want %q", got, "hello")
	}
	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}
	if b.Complete() {
		t.Fatal("Complete() = true before MarkComplete")
	}
}

func TestBufferMarkComplete(t *testing.T) {
	t.Parallel()

	var b Buffer
	b.Append([]byte("data"))

	frozen := b.MarkComplete()
	if !bytes.Equal(frozen, []byte("data")) {
		t.Fatalf("MarkComplete() = %q, want %q", frozen, "data")
	}
	if !b.Complete() {
		t.Fatal("Complete() = false after MarkComplete")
	}
	if got := b.Bytes(); !bytes.Equal(got, []byte("data")) {
		t.Fatalf("Bytes() = %q after freeze, want %q", got, "data")
	}
}

func TestBufferAppendAfterCompletePanics(t *testing.T) {
	t.Parallel()

	var b Buffer
	b.MarkComplete()

	defer func() {
		if recover() == nil {
			t.Fatal("Append on a frozen buffer did not panic")
		}
	}()
	b.Append([]byte("late"))
}

func TestBufferMarkCompleteTwicePanics(t *testing.T) {
	t.Parallel()

	var b Buffer
	b.MarkComplete()

	defer func() {
		if recover() == nil {
			t.Fatal("second MarkComplete did not panic")
		}
	}()
	b.MarkComplete()
}
