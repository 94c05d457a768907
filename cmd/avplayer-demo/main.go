package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	player "github.com/erparts/avplayer"
	"github.com/erparts/avplayer/ebitensink"
	"github.com/erparts/avplayer/reisenmux"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: go run main.go path/or/url/to/video.mp4\n")
		os.Exit(1)
	}
	url := os.Args[1]

	videoSink := ebitensink.NewVideoSink()
	audioSink := ebitensink.NewAudioSink()
	p := player.NewPlayer(reisenmux.New(), videoSink, audioSink, &notifier{}, player.DefaultParams())
	p.Open(url)

	ebiten.SetWindowTitle("avplayer/demo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 720)

	err := ebiten.RunGame(&MediaPlayer{
		player:    p,
		videoSink: videoSink,
	})
	if err != nil {
		panic(err)
	}
}

// notifier prints the state, buffering and end-of-media callbacks to
// stdout and ignores the video-render and position callbacks; a real
// embedder would drive its UI from these instead.
type notifier struct{}

func (n *notifier) OnVideoRender(frame *player.Frame)         {}
func (n *notifier) OnPositionChanged(pos time.Duration)       {}
func (n *notifier) OnStateChanged(state player.PlaybackState) { fmt.Printf("state: %s\n", state) }
func (n *notifier) OnBufferingChanged(buffering bool)         { fmt.Printf("buffering: %v\n", buffering) }
func (n *notifier) OnEndReached()                             { fmt.Println("end of media") }

type MediaPlayer struct {
	player    *player.Player
	videoSink *ebitensink.VideoSink
}

func (m *MediaPlayer) Layout(_, _ int) (int, int) {
	panic("Layout() should not be called when LayoutF() exists")
}

func (m *MediaPlayer) LayoutF(w, h float64) (float64, float64) {
	scaleFactor := ebiten.Monitor().DeviceScaleFactor()
	return w * scaleFactor, h * scaleFactor
}

func (m *MediaPlayer) Draw(canvas *ebiten.Image) {
	m.videoSink.Draw(canvas)
	m.drawGUI(canvas)
}

func (m *MediaPlayer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if err := m.player.Close(); err != nil {
			return err
		}
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		m.player.TogglePause()
	} else if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		m.player.Stop()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		m.player.Seek(m.player.Position() + 5*time.Second)
	} else if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		m.player.Seek(m.player.Position() - 5*time.Second)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		m.player.SetVolume(min(m.player.Volume()+0.1, 1.0))
	} else if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		m.player.SetVolume(max(m.player.Volume()-0.1, 0.0))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		m.player.SetMuted(!m.player.Muted())
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		fmt.Printf("dump: %+v\n", m.player.Dump())
	}

	return nil
}

// TODO: a clean GUI would use a faded darkened area, then light colors and icons for bars and text
func (m *MediaPlayer) drawGUI(canvas *ebiten.Image) {
	bounds := canvas.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	playWidth := (w * 2) / 3
	playHeight := h / 48
	ox := (w - playWidth) / 2
	oy := h - playHeight*2
	playRect := image.Rect(ox, oy, ox+playWidth, oy+playHeight)
	canvas.SubImage(playRect).(*ebiten.Image).Fill(color.RGBA{255, 255, 255, 255})
	const BorderThickness = 3
	playRect.Min.X += BorderThickness
	playRect.Max.X -= BorderThickness
	playRect.Min.Y += BorderThickness
	playRect.Max.Y -= BorderThickness
	canvas.SubImage(playRect).(*ebiten.Image).Fill(color.RGBA{0, 0, 0, 255})
	const InnerMargin = 2
	playRect.Min.X += InnerMargin
	playRect.Max.X -= InnerMargin
	playRect.Min.Y += InnerMargin
	playRect.Max.Y -= InnerMargin

	position := m.player.Position()
	duration := m.player.Duration()
	if duration > 0 {
		t := float64(position) / float64(duration)
		playRect.Max.X = playRect.Min.X + int(float64(playRect.Dx())*t)
		canvas.SubImage(playRect).(*ebiten.Image).Fill(color.RGBA{255, 255, 255, 255})
	}

	status := durationToMMSS(position) + " / " + durationToMMSS(duration)
	if m.player.Buffering() {
		status += " (buffering...)"
	}
	status += " (SPACE to pause, S to stop, arrows to seek)"
	ebitenutil.DebugPrintAt(canvas, status, ox, oy-16)
}

func durationToMMSS(duration time.Duration) string {
	if duration < 0 {
		return "--:--"
	}
	seconds := duration.Milliseconds() / 1000
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
