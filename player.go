package player

import (
	"sync"
	"sync/atomic"
	"time"
)

// Player is the pipeline controller: it owns the shared queues, clock,
// and state machine, drives the command bus for Open/Stop, and launches
// the demux/decode/render goroutines that move packets from the
// Demuxer, through Decoders, through the FrameQueues, to the
// VideoSink/AudioSink.
//
// Play/Pause/Seek act directly on shared state rather than through the
// command bus: unlike Open/Stop they never block on I/O, so there is
// nothing for a command to serialize against.
type Player struct {
	demuxer   Demuxer
	videoSink VideoSink
	audioSink AudioSink
	callback  Callback
	params    Params

	state     *stateMachine
	buffering *bufferingController
	cmds      *commandBus
	clock     *Clock

	videoPQ *PacketQueue
	audioPQ *PacketQueue
	videoFQ *FrameQueue
	audioFQ *FrameQueue

	descMu    sync.RWMutex
	videoDesc StreamDescriptor
	audioDesc StreamDescriptor

	// videoDecoder/audioDecoder are only touched by runOpen/closeSession,
	// which the command bus runs one command at a time (Close also calls
	// closeSession, outside the bus), and by their own stage goroutine,
	// which only runs between those two points — so no lock is taken.
	videoDecoder Decoder
	audioDecoder Decoder

	abort       atomic.Bool
	seekTo      atomic.Int64 // nanoseconds; -1 means no seek pending
	synced      atomic.Bool
	audioInited atomic.Bool
	endReached  atomic.Bool
	eof         atomic.Bool
	hardEOF     atomic.Bool // eof came from a true end of stream, not a read failure
	naturalEnd  atomic.Bool

	position atomic.Int64 // nanoseconds
	total    atomic.Int64 // nanoseconds, -1 if unknown
	seekable atomic.Bool

	downloadSpeed atomic.Int64 // bytes/sec, exponential moving average
	fps           atomic.Int64 // frames/sec * 1000
	bucketBytes   atomic.Int64

	generation atomic.Uint64
	currentWG  *sync.WaitGroup // set by runOpen, read by teardown (command-bus-serialized) and by Close
}

// NewPlayer wires a Demuxer and a pair of sinks into a controller. Both
// sinks must be non-nil: playable media always carries both stream
// kinds. Sink implementations are typically backed by subpackage
// reisenmux (Demuxer/Decoder) and ebitensink (VideoSink/AudioSink);
// callback may be nil.
func NewPlayer(demuxer Demuxer, videoSink VideoSink, audioSink AudioSink, callback Callback, params Params) *Player {
	p := &Player{
		demuxer:   demuxer,
		videoSink: videoSink,
		audioSink: audioSink,
		callback:  callback,
		params:    params,
		videoPQ:   NewPacketQueue(),
		audioPQ:   NewPacketQueue(),
		videoFQ:   NewFrameQueue(),
		audioFQ:   NewFrameQueue(),
		clock:     NewClock(),
	}
	p.state = newStateMachine(p.onStateChanged)
	p.buffering = newBufferingController(p.onBufferingChanged)
	p.cmds = newCommandBus(p.execCommand)
	p.seekTo.Store(-1)
	p.total.Store(-1)
	return p
}

func (p *Player) onStateChanged(s PlaybackState) {
	pkgLogger.Printf("player: state -> %s", s)
	if p.callback != nil {
		p.callback.OnStateChanged(s)
	}
}

func (p *Player) onBufferingChanged(b bool) {
	pkgLogger.Printf("player: buffering=%v", b)
	if p.callback != nil {
		p.callback.OnBufferingChanged(b)
	}
}

// Open submits an open command for url. Asynchronous: it returns before
// the container is probed. A superseding Open or an intervening Stop
// replaces it if it has not started yet, per the command bus's
// last-writer-wins rule.
//
// It raises abort immediately, ahead of the command bus, so that a
// currently-executing Open stuck in a blocking demuxer call (the only
// place interrupt is polled) unwinds right away rather than waiting for
// its own command body to return before this one can even begin.
// runOpen lowers abort again once it actually starts.
func (p *Player) Open(url string) {
	p.abort.Store(true)
	p.cmds.Submit(&Command{ID: p.cmds.nextID(), Type: CommandOpen, URL: url})
}

// Stop submits a stop command, for the same reason and with the same
// eager-abort behavior as Open.
func (p *Player) Stop() {
	p.abort.Store(true)
	p.cmds.Submit(&Command{ID: p.cmds.nextID(), Type: CommandStop})
}

func (p *Player) execCommand(cmd *Command) {
	switch cmd.Type {
	case CommandOpen:
		p.runOpen(cmd.URL)
	case CommandStop:
		p.runStop()
	}
	p.cmds.onFinished()
}

// Play resumes a paused session. A no-op outside StatePaused.
func (p *Player) Play() bool { return p.state.change(StatePaused, StatePlaying) }

// Pause suspends a playing session. A no-op outside StatePlaying.
func (p *Player) Pause() bool { return p.state.change(StatePlaying, StatePaused) }

// TogglePause flips between Playing and Paused; a no-op in any other
// state.
func (p *Player) TogglePause() bool {
	if p.state.get() == StatePlaying {
		return p.Pause()
	}
	return p.Play()
}

// Seek requests a reposition to pos, clamped to the media's duration
// when it is known. Ignored if the current session is not seekable;
// otherwise the demux stage picks it up on its next iteration. The
// reported position moves to pos immediately rather than waiting for
// the first post-seek frame, so a UI scrubber doesn't snap back.
func (p *Player) Seek(pos time.Duration) {
	if !p.seekable.Load() {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if total := time.Duration(p.total.Load()); total >= 0 && pos > total {
		pos = total
	}
	p.position.Store(int64(pos))
	p.seekTo.Store(int64(pos))
}

func (p *Player) State() PlaybackState    { return p.state.get() }
func (p *Player) Position() time.Duration { return time.Duration(p.position.Load()) }
func (p *Player) Duration() time.Duration { return time.Duration(p.total.Load()) }
func (p *Player) Seekable() bool          { return p.seekable.Load() }
func (p *Player) EndReached() bool        { return p.endReached.Load() }
func (p *Player) Buffering() bool         { return p.buffering.Get() }
func (p *Player) DownloadSpeed() int64    { return p.downloadSpeed.Load() }
func (p *Player) FPS() float64            { return float64(p.fps.Load()) / 1000 }

func (p *Player) Volume() float64 {
	if p.audioSink == nil {
		return 0
	}
	return p.audioSink.Volume()
}

func (p *Player) SetVolume(v float64) {
	if p.audioSink != nil {
		p.audioSink.SetVolume(v)
	}
}

func (p *Player) Muted() bool {
	if p.audioSink == nil {
		return false
	}
	return p.audioSink.Muted()
}

func (p *Player) SetMuted(m bool) {
	if p.audioSink != nil {
		p.audioSink.SetMuted(m)
	}
}

// Dump returns a diagnostics snapshot, matching the fields the original
// implementation exposed for introspection.
func (p *Player) Dump() DumpInfo {
	return DumpInfo{
		PacketBufferSize:         p.videoPQ.ByteSize() + p.audioPQ.ByteSize(),
		MaxPacketBufferSize:      p.params.MaxPacketBufferSize,
		MaxFrameQueueSize:        p.params.MaxFrameQueueSize,
		VideoPacketQueueSize:     p.videoPQ.Size(),
		AudioPacketQueueSize:     p.audioPQ.Size(),
		VideoFrameQueueSize:      p.videoFQ.Size(),
		AudioFrameQueueSize:      p.audioFQ.Size(),
		VideoPacketQueueDuration: p.videoPQ.Duration(),
		AudioPacketQueueDuration: p.audioPQ.Duration(),
		VideoFrameQueueDuration:  p.videoFQ.Duration(),
		AudioFrameQueueDuration:  p.audioFQ.Duration(),
		VideoClock:               p.clock.VideoSeconds(),
		AudioClock:               p.clock.AudioSeconds(),
	}
}

// Close tears the player down for good: it is not routed through the
// command bus, since nothing should be concurrently opening or stopping
// a player its owner is about to discard.
func (p *Player) Close() error {
	p.abort.Store(true)
	if wg := p.currentWG; wg != nil {
		wg.Wait()
	}
	p.closeSession()
	p.state.change(stateAny, StateStopped)
	if p.audioSink != nil {
		return p.audioSink.Close()
	}
	return nil
}

func (p *Player) runStop() {
	if p.state.get() == StateStopped {
		return
	}
	p.state.change(stateAny, StateStopping)
	p.teardown()
	p.buffering.Set(false)
	p.state.change(stateAny, StateStopped)
}

func (p *Player) teardown() {
	p.abort.Store(true)
	if wg := p.currentWG; wg != nil {
		wg.Wait()
	}
	p.closeSession()
	p.currentWG = nil
}

func (p *Player) closeSession() {
	if p.audioDecoder != nil {
		p.audioDecoder.Close()
		p.audioDecoder = nil
	}
	if p.videoDecoder != nil {
		p.videoDecoder.Close()
		p.videoDecoder = nil
	}
	if p.demuxer != nil {
		p.demuxer.Close()
	}
	p.videoPQ.Clear()
	p.audioPQ.Clear()
	p.videoFQ.Clear()
	p.audioFQ.Clear()
	if p.audioInited.Load() && p.audioSink != nil {
		p.audioSink.Stop()
	}
	p.audioInited.Store(false)
	p.clock.Clear()
	p.synced.Store(false)
	p.position.Store(0)
}

func (p *Player) failOpen(url string, err error) {
	pkgLogger.Printf("WARNING: open %q failed: %v", url, err)
	p.demuxer.Close()
	p.buffering.Set(false)
	p.state.change(stateAny, StateStopped)
}

func (p *Player) runOpen(url string) {
	// Bump the generation before tearing down any prior session so that
	// session's awaitPipelineEnd, if it wakes concurrently with this call,
	// sees a stale generation and skips its auto-stop instead of racing
	// this fresh session.
	gen := p.generation.Add(1)

	if p.state.get() != StateStopped {
		p.teardown()
	}

	p.abort.Store(false)
	p.endReached.Store(false)
	p.eof.Store(false)
	p.hardEOF.Store(false)
	p.synced.Store(false)
	p.naturalEnd.Store(false)
	p.audioInited.Store(false)
	p.seekTo.Store(-1)
	p.clock.Clear()
	p.position.Store(0)
	p.downloadSpeed.Store(0)
	p.fps.Store(0)
	p.bucketBytes.Store(0)
	p.buffering.Set(true)
	p.state.change(stateAny, StateOpening)

	interrupt := func() bool { return p.abort.Load() }
	if err := p.demuxer.Open(url, interrupt); err != nil {
		pkgLogger.Printf("WARNING: open %q failed: %v", url, &OpenError{Op: "probe", URL: url, Err: err})
		p.buffering.Set(false)
		p.state.change(stateAny, StateStopped)
		return
	}

	// A playable container must carry both kinds: the pipeline's clock
	// model has no degraded single-stream mode.
	vdesc, ok := p.demuxer.VideoStream()
	if !ok {
		p.failOpen(url, ErrNoVideoStream)
		return
	}
	adesc, ok := p.demuxer.AudioStream()
	if !ok {
		p.failOpen(url, ErrNoAudioStream)
		return
	}

	p.descMu.Lock()
	p.videoDesc, p.audioDesc = vdesc, adesc
	p.descMu.Unlock()

	vdec, err := p.demuxer.OpenVideoDecoder()
	if err != nil {
		p.failOpen(url, &OpenError{Op: "open-video-decoder", URL: url, Err: err})
		return
	}
	p.videoDecoder = vdec
	adec, err := p.demuxer.OpenAudioDecoder()
	if err != nil {
		p.videoDecoder.Close()
		p.videoDecoder = nil
		p.failOpen(url, &OpenError{Op: "open-audio-decoder", URL: url, Err: err})
		return
	}
	p.audioDecoder = adec

	p.total.Store(int64(p.demuxer.Duration()))
	p.seekable.Store(p.demuxer.Seekable())

	wg := &sync.WaitGroup{}
	p.currentWG = wg

	wg.Add(5)
	go func() { defer wg.Done(); p.demuxLoop() }()
	go func() { defer wg.Done(); p.decodeLoop(KindVideo) }()
	go func() { defer wg.Done(); p.videoRenderLoop() }()
	go func() { defer wg.Done(); p.decodeLoop(KindAudio) }()
	go func() { defer wg.Done(); p.audioRenderLoop() }()

	// Playing becomes observable only once every stage is live; until
	// then the buffering gate keeps the just-launched renderers idle.
	p.state.change(stateAny, StatePlaying)

	go p.awaitPipelineEnd(wg, gen)
}

// awaitPipelineEnd watches one session's stage goroutines and, if they
// all exited because the demux stage reached a natural end of stream
// (rather than because something called Stop/Open), submits the stop
// command that takes the player the rest of the way to StateStopped.
// The generation check guards against a session whose end was already
// superseded by a newer Open by the time its goroutines unwind.
func (p *Player) awaitPipelineEnd(wg *sync.WaitGroup, gen uint64) {
	wg.Wait()
	if !p.naturalEnd.Load() || p.generation.Load() != gen {
		return
	}
	p.cmds.Submit(&Command{ID: p.cmds.nextID(), Type: CommandStop})
}

func (p *Player) videoStreamIndex() int {
	p.descMu.RLock()
	defer p.descMu.RUnlock()
	return p.videoDesc.Index
}

func (p *Player) audioStreamIndex() int {
	p.descMu.RLock()
	defer p.descMu.RUnlock()
	return p.audioDesc.Index
}

func (p *Player) queuesFor(kind MediaKind) (*PacketQueue, *FrameQueue, Decoder) {
	if kind == KindVideo {
		return p.videoPQ, p.videoFQ, p.videoDecoder
	}
	return p.audioPQ, p.audioFQ, p.audioDecoder
}
