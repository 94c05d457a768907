package player

import "time"

// ReadOutcome classifies the result of a single Demuxer.ReadPacket call,
// mirroring the distinction the original implementation drew between a
// transient EAGAIN, a hard end-of-stream, and any other read failure.
type ReadOutcome uint8

const (
	ReadOK ReadOutcome = iota
	ReadAgain
	ReadEOF
	ReadError
)

// Demuxer is the collaborator that owns the media container: opening it,
// enumerating the selected video/audio streams, reading packets, and
// seeking. A concrete implementation wraps a library such as reisen; see
// subpackage reisenmux.
//
// Open must install interrupt as the container's blocking-I/O cancellation
// hook: the demux stage polls it indirectly by relying on the container to
// call it during otherwise-uninterruptible reads, and never calls it
// itself. interrupt returns true once the caller should give up.
type Demuxer interface {
	Open(url string, interrupt func() bool) error

	// VideoStream/AudioStream report the selected streams. Either may be
	// the zero StreamDescriptor with ok=false if no such stream exists in
	// the container; the player treats a missing kind as an open failure.
	VideoStream() (desc StreamDescriptor, ok bool)
	AudioStream() (desc StreamDescriptor, ok bool)

	// Duration reports the container duration, or -1 if unknown (e.g. a
	// live stream).
	Duration() time.Duration
	Seekable() bool

	// OpenVideoDecoder/OpenAudioDecoder construct the decoder bound to the
	// codec parameters of the corresponding selected stream. Called at
	// most once per open session, only for streams that VideoStream/
	// AudioStream reported.
	OpenVideoDecoder() (Decoder, error)
	OpenAudioDecoder() (Decoder, error)

	// ReadPacket pulls the next packet from the container. The returned
	// Packet's StreamIndex identifies which queue it belongs on; the demux
	// stage itself does not interpret payload contents.
	ReadPacket() (pkt *Packet, outcome ReadOutcome, err error)

	// Seek repositions the container at pos and invalidates in-flight
	// decoder state; callers must re-synchronize via a flush marker.
	Seek(pos time.Duration) error

	Close() error
}

// Decoder turns packets from one stream into zero or more decoded frames.
// A concrete implementation wraps the codec context for a single stream;
// see subpackage reisenmux.
type Decoder interface {
	// Decode feeds one packet to the codec and returns every frame it
	// produced as a result (zero, one, or more). pkt is never a flush
	// marker; the decode stage handles those itself via Flush.
	Decode(pkt *Packet) ([]*Frame, error)

	// Flush discards any buffered reference frames, called when the
	// decode stage consumes a flush marker (i.e. across a seek).
	Flush()

	Close() error
}

// VideoSink presents a decoded video frame to the screen.
type VideoSink interface {
	Present(frame *Frame) error
}

// AudioSink renders decoded audio. Open is called lazily, on the first
// audio frame ever decoded in a session, using that frame as the format
// descriptor (sample rate, channel count, sample format).
type AudioSink interface {
	Open(first *Frame) error
	Render(frame *Frame) error
	Stop() error
	Close() error
	SetVolume(volume float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool
}

// Callback is the upward notification surface a Player emits on its own
// goroutines. Implementations must not block or call back into the
// Player synchronously.
type Callback interface {
	OnVideoRender(frame *Frame)
	OnPositionChanged(pos time.Duration)
	OnStateChanged(state PlaybackState)
	OnBufferingChanged(buffering bool)
	OnEndReached()
}
