package player

import "time"

// audioRenderLoop is stage H: it is the audio side of the initial A/V
// sync handshake (mirroring videoRenderLoop, but comparing itself
// against the video clock instead of the other way around), renders
// decoded audio through the AudioSink, and paces itself by the frame's
// own duration since audio, being the master clock once flowing, has no
// other clock to catch up to.
func (p *Player) audioRenderLoop() {
	wasPaused := false

	for {
		if p.abort.Load() {
			return
		}

		if p.state.get() == StatePaused {
			if !wasPaused {
				if p.audioSink != nil {
					if err := p.audioSink.Stop(); err != nil {
						pkgLogger.Printf("WARNING: %v", &SinkError{Kind: KindAudio, Op: "stop", Err: err})
					}
				}
				wasPaused = true
			}
			time.Sleep(p.params.PauseIdleInterval)
			continue
		}
		wasPaused = false

		if p.buffering.Get() || p.seekTo.Load() != -1 {
			time.Sleep(p.params.PauseIdleInterval)
			continue
		}

		frame, ok := p.audioFQ.Acquire()
		if !ok {
			time.Sleep(p.params.DecodeIdleInterval)
			continue
		}

		p.clock.EnsureBase()
		p.descMu.RLock()
		start := p.audioDesc.StartTime
		p.descMu.RUnlock()
		p.clock.EnsureAudioDrift(start)
		p.clock.SetAudioPTS(frame.PTS)

		if !p.synced.Load() {
			for p.clock.VideoSeconds() == unsetClock && !p.abort.Load() && p.seekTo.Load() == -1 {
				time.Sleep(p.params.SyncHandshakeInterval)
			}
			dropped := false
			for !p.abort.Load() && p.seekTo.Load() == -1 && p.state.get() == StatePlaying {
				diff := p.clock.VideoSeconds() - p.clock.AudioSeconds()
				if diff <= -p.params.SyncWindow {
					// Video is behind: hold this sample and re-check once it
					// has had a chance to advance.
					time.Sleep(p.params.SyncHandshakeInterval)
					continue
				}
				if diff >= p.params.SyncWindow {
					// Audio is behind video: drop this sample to catch up;
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

		worked := true
		if err := p.audioSink.Render(frame); err != nil {
			pkgLogger.Printf("WARNING: %v", &SinkError{Kind: KindAudio, Op: "render", Err: err})
			worked = false
		}

		sleep := frame.Duration
		if worked {
			sleep -= 10 * time.Millisecond
		}
		if sleep > 0 {
			time.Sleep(sleep)
		}
	}
}
