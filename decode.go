package player

import "time"

// decodeLoop is stage B/C: one instance per kind, feeding packets from
// that kind's PacketQueue to its Decoder and appending the resulting
// frames to that kind's FrameQueue. It applies back-pressure against
// MaxFrameQueueSize, and on a flush marker drops the rest of both of
// this stream's queues and the decoder's internal reference state, so a
// seek never lets pre-seek frames reach the screen or speakers.
func (p *Player) decodeLoop(kind MediaKind) {
	pq, fq, decoder := p.queuesFor(kind)
	for {
		if p.abort.Load() {
			return
		}

		if fq.Size() >= p.params.MaxFrameQueueSize {
			time.Sleep(p.params.DecodeIdleInterval)
			continue
		}

		pkt, ok := pq.Acquire()
		if !ok {
			time.Sleep(p.params.DecodeIdleInterval)
			continue
		}

		if pq.IsFlushMarker(pkt) {
			pq.Clear()
			decoder.Flush()
			fq.Clear()
			continue
		}

		frames, err := decoder.Decode(pkt)
		if err != nil {
			pkgLogger.Printf("WARNING: %v", &DecodeError{Kind: kind, Err: err})
			continue
		}

		seeking := p.seekTo.Load() != -1
		for _, f := range frames {
			if seeking {
				continue // belongs to the position we are seeking away from
			}
			f.Kind = kind
			if kind == KindAudio && !p.audioInited.Load() {
				p.initAudioSink(f)
			}
			fq.Append(f)
		}
	}
}

// initAudioSink lazily opens the audio sink using the first audio frame
// ever decoded in this session as its format descriptor, since that is
// the earliest point the sink's required sample rate/channel layout is
// known.
func (p *Player) initAudioSink(first *Frame) {
	if p.audioSink != nil {
		if err := p.audioSink.Open(first); err != nil {
			pkgLogger.Printf("WARNING: %v", &SinkError{Kind: KindAudio, Op: "open", Err: err})
		}
	}
	p.audioInited.Store(true)
}
