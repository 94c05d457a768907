// Package reisenmux adapts github.com/erparts/reisen to the player
// package's Demuxer/Decoder collaborator contract.
//
// reisen fuses packet reading and decode at the stream level:
// VideoStream.ReadVideoFrame and AudioStream.ReadAudioFrame each pull the
// next packet belonging to their stream internally and hand back an
// already-decoded frame; there is no standalone "decode this packet"
// call. That does not line up with player's decoupled
// Demuxer.ReadPacket -> PacketQueue -> Decoder.Decode(pkt) model, which
// needs a real packet in hand for byte/duration accounting and
// flush-marker cleaving across a seek.
//
// The adapter resolves the mismatch by doing the decode eagerly, inside
// ReadPacket: it drives reisen's fused read-and-decode call for whichever
// stream the next demuxed packet belongs to, and stashes the resulting
// frame as the returned Packet's opaque Payload. Decoder.Decode then just
// unwraps it. From the rest of the pipeline's point of view the
// read/decode split still holds; only this package knows it is fake.
package reisenmux

import (
	"errors"
	"sync"
	"time"

	player "github.com/erparts/avplayer"
	"github.com/erparts/reisen"
)

// audioChannels is assumed fixed at stereo, matching the teacher's own
// assumption: it never queries a channel count from reisen and feeds
// AudioFrame.Data() straight to an ebiten audio.Context, which is itself
// opened for a fixed sample rate and expects interleaved stereo 16-bit
// PCM frames.
const audioChannels = 2

const bytesPerSample = 2 // 16-bit PCM

// decodedVideo is the Payload stashed on a video Packet by ReadPacket.
type decodedVideo struct {
	pts           time.Duration
	data          []byte
	width, height int
}

// decodedAudio is the Payload stashed on an audio Packet by ReadPacket.
type decodedAudio struct {
	pts        time.Duration
	data       []byte
	sampleRate int
}

var _ player.Demuxer = (*Demuxer)(nil)
var _ player.Decoder = (*Decoder)(nil)

// Demuxer is a player.Demuxer backed by a single reisen.Media container.
// It is not safe for concurrent use from more than one goroutine, matching
// the rest of this module's stage ownership (only demuxLoop calls it).
type Demuxer struct {
	mu    sync.Mutex
	media *reisen.Media
	video *reisen.VideoStream
	audio *reisen.AudioStream

	videoFrameDuration time.Duration
	videoDesc          player.StreamDescriptor
	audioDesc          player.StreamDescriptor
	hasVideo, hasAudio bool
	duration           time.Duration

	decodeOpened bool
}

// New returns an unopened Demuxer.
func New() *Demuxer {
	return &Demuxer{}
}

// Open opens the container at url and selects its first video and first
// audio stream, if present. reisen.NewMedia has no cancellation hook of
// its own, so Open runs it on a separate goroutine and polls interrupt
// while waiting: if interrupt fires first, Open returns an *AbortedError
// without waiting for the (possibly still-blocked) underlying open to
// finish. That open is abandoned, not killed; this mirrors the degree of
// cancellation reisen actually offers rather than inventing one it
// doesn't.
func (d *Demuxer) Open(url string, interrupt func() bool) error {
	type result struct {
		media *reisen.Media
		err   error
	}
	done := make(chan result, 1)
	go func() {
		m, err := reisen.NewMedia(url)
		done <- result{m, err}
	}()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case r := <-done:
			if r.err != nil {
				return r.err
			}
			d.media = r.media
			return d.selectStreams()
		case <-ticker.C:
			if interrupt() {
				return &player.AbortedError{Op: "reisenmux.Open"}
			}
		}
	}
}

func (d *Demuxer) selectStreams() error {
	videoStreams := d.media.VideoStreams()
	audioStreams := d.media.AudioStreams()

	var videoDuration, audioDuration time.Duration
	if len(videoStreams) > 0 {
		d.video = videoStreams[0]
		frNum, frDenom := d.video.FrameRate()
		d.videoFrameDuration = (time.Second * time.Duration(frDenom)) / time.Duration(frNum)
		dur, err := d.video.Duration()
		if err != nil {
			return err
		}
		videoDuration = dur
		d.hasVideo = true
		d.videoDesc = player.StreamDescriptor{
			Index:  d.video.Index(),
			Kind:   player.KindVideo,
			Width:  d.video.Width(),
			Height: d.video.Height(),
		}
	}
	if len(audioStreams) > 0 {
		d.audio = audioStreams[0]
		dur, err := d.audio.Duration()
		if err != nil {
			return err
		}
		audioDuration = dur
		d.hasAudio = true
		d.audioDesc = player.StreamDescriptor{
			Index:      d.audio.Index(),
			Kind:       player.KindAudio,
			SampleRate: d.audio.SampleRate(),
			Channels:   audioChannels,
		}
	}
	if !d.hasVideo && !d.hasAudio {
		return player.ErrNoVideoStream
	}
	d.duration = max(videoDuration, audioDuration)
	return nil
}

func (d *Demuxer) VideoStream() (player.StreamDescriptor, bool) { return d.videoDesc, d.hasVideo }
func (d *Demuxer) AudioStream() (player.StreamDescriptor, bool) { return d.audioDesc, d.hasAudio }
func (d *Demuxer) Duration() time.Duration                      { return d.duration }

// Seekable reports whether the container can be repositioned: a live
// source with no known duration cannot.
func (d *Demuxer) Seekable() bool { return d.duration > 0 }

// ensureDecodeOpen opens the container's decode context exactly once, the
// first time either OpenVideoDecoder or OpenAudioDecoder is called.
func (d *Demuxer) ensureDecodeOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.decodeOpened {
		return nil
	}
	if err := d.media.OpenDecode(); err != nil {
		return err
	}
	d.decodeOpened = true
	return nil
}

// OpenVideoDecoder opens the selected video stream for decoding and
// returns the (trivial, unwrap-only) Decoder for it.
func (d *Demuxer) OpenVideoDecoder() (player.Decoder, error) {
	if !d.hasVideo {
		return nil, player.ErrNoVideoStream
	}
	if err := d.ensureDecodeOpen(); err != nil {
		return nil, err
	}
	if err := d.video.Open(); err != nil {
		return nil, err
	}
	return newDecoder(player.KindVideo), nil
}

// OpenAudioDecoder opens the selected audio stream for decoding and
// returns the (trivial, unwrap-only) Decoder for it.
func (d *Demuxer) OpenAudioDecoder() (player.Decoder, error) {
	if !d.hasAudio {
		return nil, player.ErrNoAudioStream
	}
	if err := d.ensureDecodeOpen(); err != nil {
		return nil, err
	}
	if err := d.audio.Open(); err != nil {
		return nil, err
	}
	return newDecoder(player.KindAudio), nil
}

// ReadPacket drives reisen's fused packet-read-and-decode call for
// whichever selected stream the next packet in the container belongs to,
// skipping packets for streams that were not selected and frame-skip
// results reisen itself declines to produce a frame for.
func (d *Demuxer) ReadPacket() (*player.Packet, player.ReadOutcome, error) {
	for {
		packet, found, err := d.media.ReadPacket()
		if err != nil {
			return nil, player.ReadError, err
		}
		if !found {
			return nil, player.ReadEOF, nil
		}

		switch packet.Type() {
		case reisen.StreamVideo:
			if !d.hasVideo || packet.StreamIndex() != d.video.Index() {
				continue
			}
			frame, _, err := d.video.ReadVideoFrame()
			if err != nil {
				return nil, player.ReadError, err
			}
			if frame == nil {
				continue // frame skip: reisen declined to produce a frame for this packet
			}
			pts, err := frame.PresentationOffset()
			if err != nil {
				return nil, player.ReadError, err
			}
			return &player.Packet{
				StreamIndex: d.video.Index(),
				Size:        len(frame.Data()),
				Duration:    d.videoFrameDuration,
				Payload: decodedVideo{
					pts:    pts,
					data:   frame.Data(),
					width:  d.videoDesc.Width,
					height: d.videoDesc.Height,
				},
			}, player.ReadOK, nil

		case reisen.StreamAudio:
			if !d.hasAudio || packet.StreamIndex() != d.audio.Index() {
				continue
			}
			frame, _, err := d.audio.ReadAudioFrame()
			if err != nil {
				return nil, player.ReadError, err
			}
			if frame == nil {
				continue
			}
			pts, err := frame.PresentationOffset()
			if err != nil {
				return nil, player.ReadError, err
			}
			data := frame.Data()
			samples := len(data) / (audioChannels * bytesPerSample)
			dur := time.Duration(samples) * time.Second / time.Duration(d.audioDesc.SampleRate)
			return &player.Packet{
				StreamIndex: d.audio.Index(),
				Size:        len(data),
				Duration:    dur,
				Payload: decodedAudio{
					pts:        pts,
					data:       data,
					sampleRate: d.audioDesc.SampleRate,
				},
			}, player.ReadOK, nil

		default:
			continue // subtitle or other stream types: not selected, not our concern
		}
	}
}

// Seek rewinds the selected streams to pos. reisen exposes rewind
// per-stream rather than on the container.
func (d *Demuxer) Seek(pos time.Duration) error {
	if d.hasVideo {
		if err := d.video.Rewind(pos); err != nil {
			return err
		}
	}
	if d.hasAudio {
		if err := d.audio.Rewind(pos); err != nil {
			return err
		}
	}
	return nil
}

// Close tears down the streams and the container, in the order the
// teacher's own controllers do.
func (d *Demuxer) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.hasVideo {
		record(d.video.Close())
	}
	if d.hasAudio {
		record(d.audio.Close())
	}
	if d.decodeOpened {
		record(d.media.CloseDecode())
	}
	if d.media != nil {
		d.media.Close()
	}
	return firstErr
}

// Decoder unwraps the frame reisenmux.Demuxer.ReadPacket already decoded.
// Flush and Close are no-ops: there is no separate codec context for this
// package to hold open or discard state from, since reisen.Seek/Rewind
// (driven from Demuxer.Seek) already resets the underlying stream.
type Decoder struct {
	kind player.MediaKind
}

func newDecoder(kind player.MediaKind) *Decoder { return &Decoder{kind: kind} }

func (d *Decoder) Decode(pkt *player.Packet) ([]*player.Frame, error) {
	switch payload := pkt.Payload.(type) {
	case decodedVideo:
		return []*player.Frame{{
			Kind:     player.KindVideo,
			PTS:      payload.pts,
			Duration: pkt.Duration,
			Video: &player.VideoFramePayload{
				Width:   payload.width,
				Height:  payload.height,
				Planes:  [][]byte{payload.data},
				Strides: []int{payload.width * 4},
			},
		}}, nil
	case decodedAudio:
		samples := len(payload.data) / (audioChannels * bytesPerSample)
		return []*player.Frame{{
			Kind:     player.KindAudio,
			PTS:      payload.pts,
			Duration: pkt.Duration,
			Audio: &player.AudioFramePayload{
				SampleRate: payload.sampleRate,
				Channels:   audioChannels,
				Format:     "s16",
				NbSamples:  samples,
				Data:       [][]byte{payload.data},
			},
		}}, nil
	default:
		return nil, errors.New("reisenmux: Decode called with a packet reisenmux did not produce")
	}
}

func (d *Decoder) Flush() {}

func (d *Decoder) Close() error { return nil }
