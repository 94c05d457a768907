package player

import (
	"testing"
	"time"
)

func TestPacketQueueAppendAcquireOrder(t *testing.T) {
	t.Parallel()
	q := NewPacketQueue()
	want := []*Packet{
		{StreamIndex: 0, Size: 10, Duration: 40 * time.Millisecond},
		{StreamIndex: 0, Size: 20, Duration: 40 * time.Millisecond},
		{StreamIndex: 0, Size: 30, Duration: 40 * time.Millisecond},
	}
	for _, p := range want {
		q.Append(p)
	}
	if got := q.Size(); got != len(want) {
		t.Fatalf("Size() = %d, want %d", got, len(want))
	}
	if got, wantBytes := q.ByteSize(), int64(60); got != wantBytes {
		t.Fatalf("ByteSize() = %d, want %d", got, wantBytes)
	}
	if got, wantDur := q.Duration(), 120*time.Millisecond; got != wantDur {
		t.Fatalf("Duration() = %s, want %s", got, wantDur)
	}
	for i, p := range want {
		got, ok := q.Acquire()
		if !ok {
			t.Fatalf("Acquire() #%d: queue unexpectedly empty", i)
		}
		if got != p {
			t.Fatalf("Acquire() #%d = %p, want %p", i, got, p)
		}
	}
	if q.ByteSize() != 0 || q.Duration() != 0 || q.Size() != 0 {
		t.Fatalf("queue not empty after draining: size=%d bytes=%d dur=%s", q.Size(), q.ByteSize(), q.Duration())
	}
	if _, ok := q.Acquire(); ok {
		t.Fatal("Acquire() on empty queue returned ok=true")
	}
}

func TestPacketQueueFlushMarkerIdentity(t *testing.T) {
	t.Parallel()
	q := NewPacketQueue()
	zeroValued := &Packet{} // a zero-byte, zero-value packet is NOT the marker
	q.Append(zeroValued)
	q.AppendFlushMarker()

	got, ok := q.Acquire()
	if !ok || got != zeroValued {
		t.Fatalf("expected to acquire the zero-valued packet first, got %+v ok=%v", got, ok)
	}
	if q.IsFlushMarker(got) {
		t.Fatal("a zero-valued Packet was mistaken for the flush marker")
	}

	marker, ok := q.Acquire()
	if !ok {
		t.Fatal("expected to acquire the flush marker")
	}
	if !q.IsFlushMarker(marker) {
		t.Fatal("IsFlushMarker(marker) = false, want true")
	}
}

func TestPacketQueueTwoInstancesHaveDistinctMarkers(t *testing.T) {
	t.Parallel()
	a, b := NewPacketQueue(), NewPacketQueue()
	a.AppendFlushMarker()
	marker, _ := a.Acquire()
	if b.IsFlushMarker(marker) {
		t.Fatal("one queue's flush marker was accepted as another queue's marker")
	}
}

func TestPacketQueueClearResetsTotals(t *testing.T) {
	t.Parallel()
	q := NewPacketQueue()
	q.Append(&Packet{Size: 100, Duration: time.Second})
	q.AppendFlushMarker()
	q.Clear()
	if q.Size() != 0 || q.ByteSize() != 0 || q.Duration() != 0 {
		t.Fatalf("Clear() left size=%d bytes=%d dur=%s", q.Size(), q.ByteSize(), q.Duration())
	}
}
