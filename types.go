package player

import "time"

// MediaKind tags a stream, packet, or frame as belonging to the video or
// audio leg of the pipeline.
type MediaKind uint8

const (
	KindVideo MediaKind = iota
	KindAudio
)

func (k MediaKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Packet is an opaque encoded unit produced by the demuxer, tagged by
// stream index. It is created by the demuxer, owned by a single
// PacketQueue slot, and consumed exactly once by the matching decoder.
//
// A PacketQueue's own flush-marker sentinel is a *Packet with Flush set
// and no payload; it is never handed to a Decoder.
type Packet struct {
	StreamIndex int
	Size        int           // byte size, as reported by the demuxer
	Duration    time.Duration // already converted from stream time_base
	Payload     any           // demuxer-owned opaque encoded data
	Flush       bool          // true only for a queue's singleton flush marker
}

// VideoFramePayload carries the pixel planes of one decoded video frame.
// reisenmux delivers a single packed RGBA plane, which is the layout
// ebitensink's VideoSink writes into its image.
type VideoFramePayload struct {
	Width, Height int
	Planes        [][]byte
	Strides       []int
}

// AudioFramePayload carries the sample data of one decoded audio frame.
type AudioFramePayload struct {
	SampleRate int
	Channels   int
	Format     string // e.g. "s16", "flt"
	NbSamples  int
	Data       [][]byte // one slice per plane; a packed format such as "s16" has a single interleaved slice
}

// Frame is a raw decoded unit: a presentation timestamp plus either video
// or audio payload. It is produced by a decoder, owned by one FrameQueue
// slot, and consumed once by its render stage.
type Frame struct {
	Kind     MediaKind
	PTS      time.Duration
	Duration time.Duration
	Video    *VideoFramePayload
	Audio    *AudioFramePayload
}

// StreamDescriptor is the immutable-after-open description of a selected
// stream.
type StreamDescriptor struct {
	Index      int
	Kind       MediaKind
	StartTime  time.Duration
	CodecName  string
	Width      int // video only
	Height     int // video only
	SampleRate int // audio only
	Channels   int // audio only
}

// DumpInfo is a read-only diagnostics snapshot. See Player.Dump.
type DumpInfo struct {
	PacketBufferSize         int64
	MaxPacketBufferSize      int64
	MaxFrameQueueSize        int
	VideoPacketQueueSize     int
	AudioPacketQueueSize     int
	VideoFrameQueueSize      int
	AudioFrameQueueSize      int
	VideoPacketQueueDuration time.Duration
	AudioPacketQueueDuration time.Duration
	VideoFrameQueueDuration  time.Duration
	AudioFrameQueueDuration  time.Duration
	VideoClock               time.Duration
	AudioClock               time.Duration
}

// Params collects the pipeline's tunable constants. Use DefaultParams for
// the values the original implementation shipped with.
type Params struct {
	MaxPacketBufferSize int64         // back-pressure threshold on combined packet queue bytes
	MaxBufferDuration   time.Duration // buffered video duration required to clear "buffering"
	MaxFrameQueueSize   int           // back-pressure threshold on a decoder's frame queue

	ReadRetryInterval    time.Duration // sleep after EAGAIN or an empty non-blocking read
	DecodeIdleInterval   time.Duration // sleep when a decoder finds no packet or is throttled
	PauseIdleInterval    time.Duration // sleep while a render stage is gated (buffering/paused/seeking)
	SyncHandshakeInterval time.Duration // poll interval during the initial A/V sync handshake

	SyncWindow time.Duration // |video_clock - audio_clock| below this is "synced"
}

// DefaultParams returns the tunables the reference pipeline used.
func DefaultParams() Params {
	return Params{
		MaxPacketBufferSize:   5 * 1024 * 1024,
		MaxBufferDuration:     5 * time.Second,
		MaxFrameQueueSize:     40,
		ReadRetryInterval:     200 * time.Millisecond,
		DecodeIdleInterval:    16 * time.Millisecond,
		PauseIdleInterval:     100 * time.Millisecond,
		SyncHandshakeInterval: 10 * time.Millisecond,
		SyncWindow:            300 * time.Millisecond,
	}
}
