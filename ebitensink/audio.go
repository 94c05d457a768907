package ebitensink

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	player "github.com/erparts/avplayer"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"golang.org/x/sync/semaphore"
)

// A player buffer of 200ms should be ok on desktops; wasm/web may need
// more.
const playerBufferSize time.Duration = 200 * time.Millisecond

const bytesPerSampleFrame = 4 // stereo, 16-bit

var (
	ErrNoAudioPayload  = errors.New("ebitensink: frame carries no audio payload")
	ErrTooManyChannels = errors.New("ebitensink: audio streams with more than 2 channels are not supported")
	ErrBadSampleRate   = errors.New("ebitensink: audio stream and audio context sample rates don't match")
	ErrBadSampleFormat = errors.New("ebitensink: audio sample format is not 16-bit interleaved PCM")
	ErrSinkNotOpened   = errors.New("ebitensink: audio sink was never successfully opened")
	ErrSinkClosed      = errors.New("ebitensink: audio sink is closed")
)

var _ player.AudioSink = (*AudioSink)(nil)

// AudioSink renders decoded audio frames through an ebiten audio.Player.
//
// Ebitengine's audio.Player pulls samples through an io.Reader, while the
// pipeline's render stage pushes frames. The sink bridges the two with a
// byte buffer in the middle: Render appends a frame's samples and blocks,
// at most one player-buffer's worth, when the buffer is full; the
// audio.Player's pull side drains it through Read, serving silence when
// the pipeline has fallen behind. Free buffer space is tracked with a
// weighted semaphore so the blocking in Render is cancellable from Close.
type AudioSink struct {
	mu      sync.Mutex
	ctx     *audio.Context
	pl      *audio.Player
	pending []byte
	volume  float64
	muted   bool

	capacity int64
	free     *semaphore.Weighted

	lifetime context.Context
	cancel   context.CancelFunc
}

// NewAudioSink returns an unopened sink at full volume. The underlying
// audio context and player are created by Open, on the first decoded
// audio frame.
func NewAudioSink() *AudioSink {
	lifetime, cancel := context.WithCancel(context.Background())
	return &AudioSink{
		volume:   1.0,
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// Open prepares the sink using first as the format descriptor. The
// pipeline only ever produces 16-bit interleaved PCM with at most two
// channels (the demuxer downmixes anything wider), so anything else is
// rejected rather than converted.
//
// Ebitengine allows a single audio.Context per process: if one already
// exists its sample rate must match the stream's.
func (s *AudioSink) Open(first *player.Frame) error {
	if first == nil || first.Audio == nil {
		return ErrNoAudioPayload
	}
	a := first.Audio
	if a.Channels > 2 {
		return ErrTooManyChannels
	}
	if a.Format != "s16" {
		return ErrBadSampleFormat
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lifetime.Err() != nil {
		return ErrSinkClosed
	}

	s.ctx = audio.CurrentContext()
	if s.ctx == nil {
		s.ctx = audio.NewContext(a.SampleRate)
	} else if s.ctx.SampleRate() != a.SampleRate {
		pkgWarnf("context sample rate = %d, stream sample rate = %d", s.ctx.SampleRate(), a.SampleRate)
		return ErrBadSampleRate
	}

	s.capacity = int64(playerBufferSize) * int64(a.SampleRate) * bytesPerSampleFrame / int64(time.Second)
	s.free = semaphore.NewWeighted(s.capacity)

	pl, err := s.ctx.NewPlayer(&struct{ io.Reader }{s})
	if err != nil {
		s.free = nil
		return err
	}
	pl.SetBufferSize(playerBufferSize)
	pl.SetVolume(s.effectiveVolume())
	s.pl = pl
	return nil
}

// Render appends the frame's samples behind whatever is already queued
// for the pull side, blocking while the buffer is full, and makes sure
// the underlying player is running (it may have been paused by Stop).
func (s *AudioSink) Render(frame *player.Frame) error {
	if frame == nil || frame.Audio == nil || len(frame.Audio.Data) == 0 {
		return ErrNoAudioPayload
	}
	s.mu.Lock()
	opened := s.free != nil
	s.mu.Unlock()
	if !opened {
		return ErrSinkNotOpened
	}

	data := frame.Audio.Data[0]
	for len(data) > 0 {
		n := int64(len(data))
		if n > s.capacity {
			n = s.capacity
		}
		if err := s.free.Acquire(s.lifetime, n); err != nil {
			return ErrSinkClosed
		}
		s.mu.Lock()
		s.pending = append(s.pending, data[:n]...)
		if s.pl != nil && !s.pl.IsPlaying() {
			s.pl.Play()
		}
		s.mu.Unlock()
		data = data[n:]
	}
	return nil
}

// Read is the pull side, called by ebiten's audio goroutine. It serves
// queued sample data and pads with silence when the pipeline has not
// kept up, so the player never starves into an io.EOF stop.
func (s *AudioSink) Read(buffer []byte) (int, error) {
	if s.lifetime.Err() != nil {
		return 0, io.EOF
	}

	s.mu.Lock()
	served := copy(buffer, s.pending)
	if served > 0 {
		remaining := copy(s.pending, s.pending[served:])
		s.pending = s.pending[:remaining]
	}
	s.mu.Unlock()

	if served > 0 {
		s.free.Release(int64(served))
		return served, nil
	}
	for i := range buffer {
		buffer[i] = 0
	}
	return len(buffer), nil
}

// Stop pauses playback and discards whatever was queued but not yet
// pulled; a Render blocked on a full buffer is released by the discard.
func (s *AudioSink) Stop() error {
	s.mu.Lock()
	dropped := int64(len(s.pending))
	s.pending = s.pending[:0]
	if s.pl != nil && s.pl.IsPlaying() {
		s.pl.Pause()
	}
	s.mu.Unlock()
	if dropped > 0 {
		s.free.Release(dropped)
	}
	return nil
}

// Close tears the sink down for good: any blocked Render unblocks with
// ErrSinkClosed and the underlying player is released.
func (s *AudioSink) Close() error {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if s.pl != nil {
		err := s.pl.Close()
		s.pl = nil
		return err
	}
	return nil
}

func (s *AudioSink) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
	if s.pl != nil {
		s.pl.SetVolume(s.effectiveVolume())
	}
}

func (s *AudioSink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *AudioSink) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	if s.pl != nil {
		s.pl.SetVolume(s.effectiveVolume())
	}
}

func (s *AudioSink) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// preconditions: s.mu is locked
func (s *AudioSink) effectiveVolume() float64 {
	if s.muted {
		return 0.0
	}
	return s.volume
}
