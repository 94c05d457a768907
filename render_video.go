package player

import "time"

// videoRenderLoop is stage G: it paces decoded video frames against the
// master clock, presents them through the VideoSink, and maintains the
// download-speed/fps diagnostics bucket once per wall-clock second. It
// also owns the video side of the initial A/V sync handshake: until
// synced is set (by either render stage), it drops frames that are
// behind audio and waits out frames that are ahead, rather than
// presenting immediately.
func (p *Player) videoRenderLoop() {
	lastBucket := System()
	framesThisSecond := int64(0)

	for {
		if p.abort.Load() {
			return
		}

		if now := System(); now-lastBucket >= time.Second {
			bytes := p.bucketBytes.Swap(0)
			prevSpeed := p.downloadSpeed.Load()
			p.downloadSpeed.Store((prevSpeed*5 + bytes*3) / 8)
			p.fps.Store(framesThisSecond * 1000)
			framesThisSecond = 0
			lastBucket = now
		}

		if p.buffering.Get() || p.state.get() == StatePaused || p.seekTo.Load() != -1 {
			time.Sleep(p.params.PauseIdleInterval)
			continue
		}

		frame, ok := p.videoFQ.Acquire()
		if !ok {
			time.Sleep(p.params.DecodeIdleInterval)
			continue
		}

		p.clock.EnsureBase()
		p.descMu.RLock()
		start := p.videoDesc.StartTime
		p.descMu.RUnlock()
		p.clock.EnsureVideoDrift(start)
		p.clock.SetVideoPTS(frame.PTS)

		if !p.synced.Load() {
			for p.clock.AudioSeconds() == unsetClock && !p.abort.Load() && p.seekTo.Load() == -1 {
				time.Sleep(p.params.SyncHandshakeInterval)
			}
			dropped := false
			for !p.abort.Load() && p.seekTo.Load() == -1 && p.state.get() == StatePlaying {
				diff := p.clock.VideoSeconds() - p.clock.AudioSeconds()
				if diff >= p.params.SyncWindow {
					// Audio is behind: hold this frame and re-check once it
					// has had a chance to advance.
					time.Sleep(p.params.SyncHandshakeInterval)
					continue
				}
				if diff <= -p.params.SyncWindow {
					// Video is behind audio: drop this frame to catch up;
					// the next one retries the handshake.
					dropped = true
				} else {
					p.synced.Store(true)
				}
				break
			}
			if dropped || !p.synced.Load() {
				continue
			}
		}

		if err := p.videoSink.Present(frame); err != nil {
			pkgLogger.Printf("WARNING: %v", &SinkError{Kind: KindVideo, Op: "present", Err: err})
		}
		if p.callback != nil {
			p.callback.OnVideoRender(frame)
		}

		p.reportPosition(p.clock.VideoSeconds())

		framesThisSecond++

		delay := p.clock.VideoSeconds() - p.clock.MasterSeconds()
		if max := frame.Duration * 2; delay > max {
			delay = max
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
}

// reportPosition fires OnPositionChanged only once the presented
// position has drifted far enough from the last reported one to be
// worth a notification, mirroring the >0.3s threshold the original
// implementation used for its own position callback.
func (p *Player) reportPosition(pos time.Duration) {
	if pos == unsetClock {
		return
	}
	prev := time.Duration(p.position.Load())
	d := pos - prev
	if d < 0 {
		d = -d
	}
	if d <= p.params.SyncWindow {
		return
	}
	p.position.Store(int64(pos))
	if p.callback != nil {
		p.callback.OnPositionChanged(pos)
	}
}
