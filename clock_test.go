package player

import (
	"testing"
	"time"
)

func TestClockDriftLatchesOnce(t *testing.T) {
	t.Parallel()
	c := NewClock()
	c.EnsureVideoDrift(5 * time.Second)
	c.SetVideoPTS(5 * time.Second)
	if got, want := c.VideoSeconds(), time.Duration(0); got != want {
		t.Fatalf("VideoSeconds() = %s, want %s", got, want)
	}

	// A later call must not move the already-latched drift.
	c.EnsureVideoDrift(100 * time.Second)
	c.SetVideoPTS(6 * time.Second)
	if got, want := c.VideoSeconds(), time.Second; got != want {
		t.Fatalf("VideoSeconds() after second EnsureVideoDrift = %s, want %s", got, want)
	}
}

func TestClockUnsetBeforeFirstRender(t *testing.T) {
	t.Parallel()
	c := NewClock()
	if got := c.VideoSeconds(); got != unsetClock {
		t.Fatalf("VideoSeconds() before any render = %s, want unset", got)
	}
	if got := c.AudioSeconds(); got != unsetClock {
		t.Fatalf("AudioSeconds() before any render = %s, want unset", got)
	}
	if got := c.MasterSeconds(); got != unsetClock {
		t.Fatalf("MasterSeconds() before any render = %s, want unset", got)
	}
}

func TestClockMasterPrefersAudio(t *testing.T) {
	t.Parallel()
	c := NewClock()
	c.EnsureVideoDrift(0)
	c.SetVideoPTS(10 * time.Second)
	if got, want := c.MasterSeconds(), 10*time.Second; got != want {
		t.Fatalf("MasterSeconds() with only video = %s, want %s", got, want)
	}

	c.EnsureAudioDrift(0)
	c.SetAudioPTS(3 * time.Second)
	if got, want := c.MasterSeconds(), 3*time.Second; got != want {
		t.Fatalf("MasterSeconds() with audio flowing = %s, want %s", got, want)
	}
}

func TestClockClearResetsEverything(t *testing.T) {
	t.Parallel()
	c := NewClock()
	c.EnsureBase()
	c.EnsureVideoDrift(0)
	c.EnsureAudioDrift(0)
	c.SetVideoPTS(time.Second)
	c.SetAudioPTS(time.Second)
	c.Clear()
	if got := c.VideoSeconds(); got != unsetClock {
		t.Fatalf("VideoSeconds() after Clear = %s, want unset", got)
	}
	if got := c.AudioSeconds(); got != unsetClock {
		t.Fatalf("AudioSeconds() after Clear = %s, want unset", got)
	}
}
