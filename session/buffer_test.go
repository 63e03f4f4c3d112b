package session

import (
	"bytes"
	"testing"
)

func TestAudioBufferAppendAndFlush(t *testing.T) {
	ab := NewAudioBuffer(100)

	if !ab.IsEmpty() {
		t.Fatal("fresh buffer not empty")
	}
	if got := ab.Flush(); got != nil {
		t.Fatalf("Flush on empty buffer = %v, want nil", got)
	}

	ab.Append([]byte{1, 2, 3})
	ab.Append([]byte{4, 5})
	if ab.Size() != 5 {
		t.Fatalf("Size = %d, want 5", ab.Size())
	}
	if ab.ChunkCount() != 2 {
		t.Fatalf("ChunkCount = %d, want 2", ab.ChunkCount())
	}

	got := ab.Flush()
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("Flush = %v, chunks must concatenate in order", got)
	}
	if !ab.IsEmpty() || ab.ChunkCount() != 0 {
		t.Fatal("buffer not empty after Flush")
	}
}

func TestAudioBufferCap(t *testing.T) {
	ab := NewAudioBuffer(4)

	if err := ab.Append([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Append under cap: %v", err)
	}
	if err := ab.Append([]byte{4, 5}); err != ErrBufferFull {
		t.Fatalf("Append over cap = %v, want ErrBufferFull", err)
	}
	// The rejected chunk must not land in the buffer.
	if ab.Size() != 3 {
		t.Fatalf("Size = %d after rejected append, want 3", ab.Size())
	}

	if err := ab.Append([]byte{4}); err != nil {
		t.Fatalf("Append exactly at cap: %v", err)
	}
}

func TestAudioBufferClear(t *testing.T) {
	ab := NewAudioBuffer(100)
	ab.Append([]byte{1, 2, 3})

	ab.Clear()
	if !ab.IsEmpty() {
		t.Fatal("buffer not empty after Clear")
	}
	if got := ab.Flush(); got != nil {
		t.Fatalf("Flush after Clear = %v, want nil", got)
	}
}
