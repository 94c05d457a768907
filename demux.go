package player

import "time"

// demuxLoop is stage A: it pulls packets from the Demuxer and routes
// them onto the video/audio PacketQueues, applies back-pressure against
// the combined packet buffer, drives the buffering controller's entry
// and exit conditions, and services pending seeks. It returns once
// abort is set, either by an external Stop/Open or by itself on
// reaching a drained end of stream.
func (p *Player) demuxLoop() {
	for {
		if p.abort.Load() {
			return
		}

		if seekTo := p.seekTo.Load(); seekTo != -1 {
			p.handleSeek(time.Duration(seekTo))
			continue
		}

		bufferedBytes := p.videoPQ.ByteSize() + p.audioPQ.ByteSize()
		full := bufferedBytes > p.params.MaxPacketBufferSize
		if full || p.eof.Load() {
			// Whatever is queued is all there will be; let the render
			// stages drain it rather than gating them on more data that
			// is not coming (or not needed).
			p.buffering.Set(false)
			if p.eof.Load() && p.drained() {
				p.naturalEnd.Store(true)
				// end_reached only reflects a true end of stream; a read
				// failure drains and stops the same way but leaves it false.
				if p.hardEOF.Load() {
					p.endReached.Store(true)
					if p.callback != nil {
						p.callback.OnEndReached()
					}
				}
				p.abort.Store(true)
				return
			}
			time.Sleep(p.params.ReadRetryInterval)
			continue
		}

		// Underrun check: if playback is about to starve on video, gate
		// the render stages until the queues refill.
		if !p.buffering.Get() && (p.videoPQ.Size() == 0 || p.videoFQ.Size() == 0) {
			p.buffering.Set(true)
		}

		pkt, outcome, err := p.demuxer.ReadPacket()
		switch outcome {
		case ReadAgain:
			time.Sleep(p.params.ReadRetryInterval)
			continue
		case ReadEOF:
			p.hardEOF.Store(true)
			p.eof.Store(true)
			continue
		case ReadError:
			pkgLogger.Printf("WARNING: %v", &ReadFailure{Op: "packet", Err: err})
			p.eof.Store(true) // fold into the same drain-and-stop path; end_reached stays false
			continue
		}

		p.bucketBytes.Add(int64(pkt.Size))
		switch pkt.StreamIndex {
		case p.videoStreamIndex():
			p.videoPQ.Append(pkt)
		case p.audioStreamIndex():
			p.audioPQ.Append(pkt)
		}

		p.checkBufferingExit()
	}
}

// drained reports whether every packet and frame queue is empty, i.e.
// there is no more buffered work left to drain before a true end of
// stream can be declared.
func (p *Player) drained() bool {
	return p.videoPQ.Size() == 0 && p.audioPQ.Size() == 0 &&
		p.videoFQ.Size() == 0 && p.audioFQ.Size() == 0
}

// checkBufferingExit clears the buffering flag once the packet buffer is
// full or enough video has been prefetched: MaxBufferDuration worth of
// video buffered across its packet and frame queues, with at least one
// decoded frame ready to present.
func (p *Player) checkBufferingExit() {
	if !p.buffering.Get() {
		return
	}
	full := p.videoPQ.ByteSize()+p.audioPQ.ByteSize() > p.params.MaxPacketBufferSize
	buffered := p.videoPQ.Duration() + p.videoFQ.Duration()
	if full || (buffered >= p.params.MaxBufferDuration && p.videoFQ.Size() > 0) {
		p.buffering.Set(false)
	}
}

// handleSeek cleaves the queue/decoder state across the new position:
// everything buffered for the old position is dropped outright, then a
// flush marker on each packet queue tells the decode stages to discard
// whatever they were mid-decoding, the clock and sync state restart from
// scratch, and buffering re-engages until enough of the new position is
// prefetched.
func (p *Player) handleSeek(target time.Duration) {
	p.buffering.Set(true)
	p.videoPQ.Clear()
	p.audioPQ.Clear()
	p.videoFQ.Clear()
	p.audioFQ.Clear()
	p.videoPQ.AppendFlushMarker()
	p.audioPQ.AppendFlushMarker()
	if p.audioInited.Load() && p.audioSink != nil {
		if err := p.audioSink.Stop(); err != nil {
			pkgLogger.Printf("WARNING: %v", &SinkError{Kind: KindAudio, Op: "stop", Err: err})
		}
	}
	p.synced.Store(false)
	p.clock.Clear()
	p.eof.Store(false)
	p.hardEOF.Store(false)
	p.position.Store(int64(target))
	if err := p.demuxer.Seek(target); err != nil {
		pkgLogger.Printf("WARNING: seek to %s failed: %v", target, err)
	}
	// Only retire our own request: a newer seek submitted while this one
	// was repositioning wins and gets serviced on the next iteration.
	p.seekTo.CompareAndSwap(int64(target), -1)
}
