package player

import (
	"errors"
	"sync"
	"time"
)

// fakeDemuxer is a scripted Demuxer: it serves a fixed, pre-built list of
// packets in order, optionally gated by a fake "network" that only opens
// once allowOpen is closed, so tests can exercise interrupt-driven
// cancellation of a stalled Open.
type fakeDemuxer struct {
	mu        sync.Mutex
	packets   []*Packet
	idx       int
	hasVideo  bool
	hasAudio  bool
	seekable  bool
	duration  time.Duration
	seekCalls []time.Duration
	opens     []string
	closed    bool

	stallOpens int           // number of leading Open calls that block until interrupted
	failRead   bool          // serve a ReadError instead of EOF once the packets run out
	allowOpen  chan struct{} // if non-nil, Open blocks on this or on the interrupt hook
}

func (d *fakeDemuxer) Open(url string, interrupt func() bool) error {
	d.mu.Lock()
	d.opens = append(d.opens, url)
	stall := d.stallOpens > 0
	if stall {
		d.stallOpens--
	}
	gate := d.allowOpen
	if !stall && gate == nil {
		d.idx = 0
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()
	for {
		if gate != nil {
			select {
			case <-gate:
				d.mu.Lock()
				d.idx = 0
				d.mu.Unlock()
				return nil
			default:
			}
		}
		if interrupt() {
			return errors.New("open interrupted")
		}
		time.Sleep(time.Millisecond)
	}
}

func (d *fakeDemuxer) openedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opens...)
}

func (d *fakeDemuxer) VideoStream() (StreamDescriptor, bool) {
	if !d.hasVideo {
		return StreamDescriptor{}, false
	}
	return StreamDescriptor{Index: 0, Kind: KindVideo, Width: 2, Height: 2}, true
}

func (d *fakeDemuxer) AudioStream() (StreamDescriptor, bool) {
	if !d.hasAudio {
		return StreamDescriptor{}, false
	}
	return StreamDescriptor{Index: 1, Kind: KindAudio, SampleRate: 44100, Channels: 2}, true
}

func (d *fakeDemuxer) Duration() time.Duration { return d.duration }
func (d *fakeDemuxer) Seekable() bool          { return d.seekable }

func (d *fakeDemuxer) OpenVideoDecoder() (Decoder, error) { return &fakeDecoder{kind: KindVideo}, nil }
func (d *fakeDemuxer) OpenAudioDecoder() (Decoder, error) { return &fakeDecoder{kind: KindAudio}, nil }

func (d *fakeDemuxer) ReadPacket() (*Packet, ReadOutcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.idx >= len(d.packets) {
		if d.failRead {
			return nil, ReadError, errors.New("connection reset")
		}
		return nil, ReadEOF, nil
	}
	p := d.packets[d.idx]
	d.idx++
	return p, ReadOK, nil
}

func (d *fakeDemuxer) Seek(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seekCalls = append(d.seekCalls, pos)
	d.idx = 0
	return nil
}

func (d *fakeDemuxer) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// fakeDecoder turns a packet straight into one frame, reading the
// intended presentation timestamp out of Packet.Payload so tests can
// script exact PTS sequences without a real codec.
type fakeDecoder struct {
	mu      sync.Mutex
	kind    MediaKind
	flushes int
	closed  bool
}

func (d *fakeDecoder) Decode(pkt *Packet) ([]*Frame, error) {
	pts, _ := pkt.Payload.(time.Duration)
	f := &Frame{PTS: pts, Duration: pkt.Duration}
	if d.kind == KindVideo {
		f.Video = &VideoFramePayload{Width: 2, Height: 2}
	} else {
		f.Audio = &AudioFramePayload{SampleRate: 44100, Channels: 2}
	}
	return []*Frame{f}, nil
}

func (d *fakeDecoder) Flush() {
	d.mu.Lock()
	d.flushes++
	d.mu.Unlock()
}

func (d *fakeDecoder) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDecoder) flushCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

type fakeVideoSink struct {
	mu        sync.Mutex
	presented []*Frame
}

func (s *fakeVideoSink) Present(f *Frame) error {
	s.mu.Lock()
	s.presented = append(s.presented, f)
	s.mu.Unlock()
	return nil
}

func (s *fakeVideoSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.presented)
}

type fakeAudioSink struct {
	mu       sync.Mutex
	opened   bool
	rendered []*Frame
	stops    int
	closed   bool
	volume   float64
	muted    bool
}

func (s *fakeAudioSink) Open(first *Frame) error {
	s.mu.Lock()
	s.opened = true
	s.mu.Unlock()
	return nil
}

func (s *fakeAudioSink) Render(f *Frame) error {
	s.mu.Lock()
	s.rendered = append(s.rendered, f)
	s.mu.Unlock()
	return nil
}

func (s *fakeAudioSink) Stop() error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	return nil
}

func (s *fakeAudioSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeAudioSink) SetVolume(v float64) { s.mu.Lock(); s.volume = v; s.mu.Unlock() }
func (s *fakeAudioSink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}
func (s *fakeAudioSink) SetMuted(m bool) { s.mu.Lock(); s.muted = m; s.mu.Unlock() }
func (s *fakeAudioSink) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *fakeAudioSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rendered)
}

func (s *fakeAudioSink) wasOpened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

func (s *fakeAudioSink) firstRendered() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rendered) == 0 {
		return nil
	}
	return s.rendered[0]
}

type fakeCallback struct {
	mu         sync.Mutex
	states     []PlaybackState
	buffering  []bool
	endReached int
	positions  []time.Duration
}

func (c *fakeCallback) OnVideoRender(*Frame) {}

func (c *fakeCallback) OnPositionChanged(p time.Duration) {
	c.mu.Lock()
	c.positions = append(c.positions, p)
	c.mu.Unlock()
}

func (c *fakeCallback) OnStateChanged(s PlaybackState) {
	c.mu.Lock()
	c.states = append(c.states, s)
	c.mu.Unlock()
}

func (c *fakeCallback) OnBufferingChanged(b bool) {
	c.mu.Lock()
	c.buffering = append(c.buffering, b)
	c.mu.Unlock()
}

func (c *fakeCallback) OnEndReached() {
	c.mu.Lock()
	c.endReached++
	c.mu.Unlock()
}

func (c *fakeCallback) stateHistory() []PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PlaybackState(nil), c.states...)
}

func (c *fakeCallback) lastState() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.states) == 0 {
		return stateAny
	}
	return c.states[len(c.states)-1]
}

func (c *fakeCallback) endReachedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endReached
}

// testParams returns Params tuned with short intervals so pipeline tests
// run in milliseconds rather than seconds.
func testParams() Params {
	return Params{
		MaxPacketBufferSize:   1 << 30,
		MaxBufferDuration:     5 * time.Millisecond,
		MaxFrameQueueSize:     8,
		ReadRetryInterval:     time.Millisecond,
		DecodeIdleInterval:    time.Millisecond,
		PauseIdleInterval:     time.Millisecond,
		SyncHandshakeInterval: time.Millisecond,
		SyncWindow:            300 * time.Millisecond,
	}
}

// avPackets interleaves one video and one audio packet per frame slot,
// video on stream 0 and audio on stream 1, both with identical pts.
func avPackets(n int, frameDur time.Duration) []*Packet {
	pkts := make([]*Packet, 0, 2*n)
	for i := 0; i < n; i++ {
		pts := time.Duration(i) * frameDur
		pkts = append(pkts,
			&Packet{StreamIndex: 0, Size: 188, Duration: frameDur, Payload: pts},
			&Packet{StreamIndex: 1, Size: 64, Duration: frameDur, Payload: pts},
		)
	}
	return pkts
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
