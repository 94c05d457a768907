package player

import "sync/atomic"

// bufferingController is the edge-triggered "buffering" flag: it fires
// OnBufferingChanged only on actual transitions, never on a repeated Set
// of the same value.
//
// Set(true) is driven by open/seek and by a video packet- or frame-queue
// underrun detected in the demux stage. Set(false) is driven by the demux stage once
// either the packet buffer is full or enough has been buffered (duration
// and a non-empty video frame queue).
type bufferingController struct {
	flag     atomic.Bool
	onChange func(bool)
}

func newBufferingController(onChange func(bool)) *bufferingController {
	return &bufferingController{onChange: onChange}
}

// Set updates the flag and fires onChange iff the value actually
// changed.
func (b *bufferingController) Set(v bool) {
	if b.flag.Swap(v) != v && b.onChange != nil {
		b.onChange(v)
	}
}

func (b *bufferingController) Get() bool { return b.flag.Load() }
