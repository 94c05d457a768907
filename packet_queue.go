package player

import (
	"sync"
	"time"
)

// PacketQueue is an unbounded FIFO of packets guarded by a mutex, plus a
// running byte size and duration so a producer can apply back-pressure
// without walking the list.
//
// Each PacketQueue owns exactly one flush-marker sentinel: a *Packet
// identity, never equal to any packet the demuxer produced, used to mark
// a seek boundary across the queue/decoder pair. IsFlushMarker compares
// by pointer identity, not by value, so a zero-valued Packet read from
// the demuxer is never mistaken for one.
type PacketQueue struct {
	mu          sync.Mutex
	items       []*Packet
	byteSize    int64
	duration    time.Duration
	flushMarker *Packet
}

// NewPacketQueue returns an empty queue with its own flush-marker
// identity.
func NewPacketQueue() *PacketQueue {
	return &PacketQueue{flushMarker: &Packet{Flush: true}}
}

// Append adds a packet produced by the demuxer to the tail of the queue.
func (q *PacketQueue) Append(p *Packet) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.byteSize += int64(p.Size)
	q.duration += p.Duration
	q.mu.Unlock()
}

// AppendFlushMarker enqueues this queue's flush-marker sentinel.
func (q *PacketQueue) AppendFlushMarker() {
	q.mu.Lock()
	q.items = append(q.items, q.flushMarker)
	q.mu.Unlock()
}

// IsFlushMarker reports whether p is this queue's flush-marker sentinel.
func (q *PacketQueue) IsFlushMarker(p *Packet) bool {
	return p == q.flushMarker
}

// Acquire pops and returns the head packet, or ok=false if the queue is
// empty. It never blocks; callers poll and sleep between calls.
func (q *PacketQueue) Acquire() (p *Packet, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	p = q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if !q.IsFlushMarker(p) {
		q.byteSize -= int64(p.Size)
		q.duration -= p.Duration
	}
	return p, true
}

// Clear drops every queued packet (including any flush markers) and
// resets the running totals.
func (q *PacketQueue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.byteSize = 0
	q.duration = 0
	q.mu.Unlock()
}

// Size returns the number of queued packets.
func (q *PacketQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ByteSize returns the combined byte size of non-marker queued packets.
func (q *PacketQueue) ByteSize() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.byteSize
}

// Duration returns the combined duration of non-marker queued packets.
func (q *PacketQueue) Duration() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.duration
}
