package player

import (
	"sync/atomic"
	"time"
)

// unsetClock marks a clock cell that has never been written, mirroring
// the original implementation's use of -1 for "no value yet".
const unsetClock = time.Duration(-1)

// Clock holds the per-kind presentation clocks the render stages
// maintain and the single master-clock selection rule: audio wins
// whenever it is present, video otherwise.
//
// Each kind's "seconds" value is last_pts - drift, where drift is
// latched once, on that kind's first render call, to the stream's
// start_time. Concurrent reads/writes from the two render goroutines are
// safe; no cross-field consistency is required or provided (matching the
// original's plain, unlocked doubles).
type Clock struct {
	videoPTS   atomic.Int64
	audioPTS   atomic.Int64
	videoDrift atomic.Int64
	audioDrift atomic.Int64
	base       atomic.Int64
}

// NewClock returns a cleared clock.
func NewClock() *Clock {
	c := &Clock{}
	c.Clear()
	return c
}

// Clear resets every cell to unset. Called when a session starts, stops,
// or seeks.
func (c *Clock) Clear() {
	c.videoPTS.Store(int64(unsetClock))
	c.audioPTS.Store(int64(unsetClock))
	c.videoDrift.Store(int64(unsetClock))
	c.audioDrift.Store(int64(unsetClock))
	c.base.Store(int64(unsetClock))
}

// EnsureBase latches the wall-time anchor to now, if it has not been set
// since the last Clear. Safe to call from either render stage.
func (c *Clock) EnsureBase() {
	c.base.CompareAndSwap(int64(unsetClock), int64(System()))
}

// System returns the current monotonic-ish wall clock, used only as a
// relative anchor; its absolute value carries no meaning on its own.
func System() time.Duration {
	return time.Duration(time.Now().UnixNano())
}

// EnsureVideoDrift latches the video drift to startTime, if unset.
func (c *Clock) EnsureVideoDrift(startTime time.Duration) {
	c.videoDrift.CompareAndSwap(int64(unsetClock), int64(startTime))
}

// EnsureAudioDrift latches the audio drift to startTime, if unset.
func (c *Clock) EnsureAudioDrift(startTime time.Duration) {
	c.audioDrift.CompareAndSwap(int64(unsetClock), int64(startTime))
}

// SetVideoPTS records the last presented video frame's timestamp.
func (c *Clock) SetVideoPTS(pts time.Duration) { c.videoPTS.Store(int64(pts)) }

// SetAudioPTS records the last presented audio frame's timestamp.
func (c *Clock) SetAudioPTS(pts time.Duration) { c.audioPTS.Store(int64(pts)) }

// VideoSeconds returns the video clock, or unsetClock if no video frame
// has been presented yet this session.
func (c *Clock) VideoSeconds() time.Duration {
	pts := time.Duration(c.videoPTS.Load())
	drift := time.Duration(c.videoDrift.Load())
	if pts == unsetClock || drift == unsetClock {
		return unsetClock
	}
	return pts - drift
}

// AudioSeconds returns the audio clock, or unsetClock if no audio frame
// has been presented yet this session.
func (c *Clock) AudioSeconds() time.Duration {
	pts := time.Duration(c.audioPTS.Load())
	drift := time.Duration(c.audioDrift.Load())
	if pts == unsetClock || drift == unsetClock {
		return unsetClock
	}
	return pts - drift
}

// MasterSeconds returns the audio clock when audio is flowing, otherwise
// the video clock, otherwise unsetClock.
func (c *Clock) MasterSeconds() time.Duration {
	if a := c.AudioSeconds(); a != unsetClock {
		return a
	}
	return c.VideoSeconds()
}
