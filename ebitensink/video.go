// Package ebitensink implements the player package's VideoSink and
// AudioSink collaborator contracts on top of Ebitengine: decoded video
// frames land in an ebiten.Image the embedder blits each Draw call, and
// decoded audio is bridged from the pipeline's push-style Render into
// the pull-style io.Reader an ebiten audio.Player consumes from.
package ebitensink

import (
	"errors"
	"image/color"
	"sync"

	player "github.com/erparts/avplayer"
	"github.com/hajimehoshi/ebiten/v2"
)

var ErrNoVideoPayload = errors.New("ebitensink: frame carries no video payload")

var _ player.VideoSink = (*VideoSink)(nil)

// VideoSink keeps the most recently presented frame in an ebiten.Image.
// The render stage calls Present from its own goroutine; the embedder
// reads the image from ebiten's game loop via Frame or Draw. The image
// is reused across frames, so callers must not hold onto it expecting
// its contents to stay put.
type VideoSink struct {
	mu           sync.Mutex
	frame        *ebiten.Image
	onBlackFrame bool
}

// NewVideoSink returns a sink with no frame yet; Frame returns nil and
// Draw is a no-op until the first Present.
func NewVideoSink() *VideoSink {
	return &VideoSink{onBlackFrame: true}
}

// Present copies the frame's pixel data into the sink's image, allocating
// or reallocating it if the video dimensions changed.
func (s *VideoSink) Present(frame *player.Frame) error {
	if frame == nil || frame.Video == nil || len(frame.Video.Planes) == 0 {
		return ErrNoVideoPayload
	}
	v := frame.Video

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil || s.frame.Bounds().Dx() != v.Width || s.frame.Bounds().Dy() != v.Height {
		s.frame = ebiten.NewImage(v.Width, v.Height)
	}
	s.frame.WritePixels(v.Planes[0])
	s.onBlackFrame = false
	return nil
}

// Clear blanks the retained image, as after a stop.
func (s *VideoSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame != nil && !s.onBlackFrame {
		s.frame.Fill(color.Black)
		s.onBlackFrame = true
	}
}

// Frame returns the most recently presented frame image, or nil if
// nothing has been presented yet.
func (s *VideoSink) Frame() *ebiten.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Draw blits the current frame into the given viewport, scaled with
// ebiten.FilterLinear to take as much space as possible while preserving
// the aspect ratio. Extra viewport space is left untouched, so whatever
// was on the background remains visible as bars.
func (s *VideoSink) Draw(viewport *ebiten.Image) {
	frame := s.Frame()
	if frame == nil {
		return
	}
	geom, filter := calcProjection(viewport, frame)
	var opts ebiten.DrawImageOptions
	opts.GeoM = geom
	opts.Filter = filter
	viewport.DrawImage(frame, &opts)
}

// calcProjection returns the GeoM and filter to project the frame into
// the given viewport, centered and aspect-preserving.
func calcProjection(viewport, frame *ebiten.Image) (ebiten.GeoM, ebiten.Filter) {
	frameBounds := frame.Bounds()
	viewBounds := viewport.Bounds()
	vwWidth, vwHeight := viewBounds.Dx(), viewBounds.Dy()
	frWidth, frHeight := frameBounds.Dx(), frameBounds.Dy()

	tx, ty := float64(viewBounds.Min.X), float64(viewBounds.Min.Y)

	var geom ebiten.GeoM
	var filter ebiten.Filter = ebiten.FilterLinear
	wf, hf := float64(vwWidth)/float64(frWidth), float64(vwHeight)/float64(frHeight)
	sf := wf
	if hf < wf {
		sf = hf
	}
	if sf == 1.0 {
		offx := (float64(vwWidth) - float64(frWidth)) / 2
		offy := (float64(vwHeight) - float64(frHeight)) / 2
		geom.Translate(tx+offx, ty+offy)
	} else {
		sfrWidth := float64(frWidth) * sf
		sfrHeight := float64(frHeight) * sf
		geom.Scale(sf, sf)
		geom.Translate(tx+(float64(vwWidth)-sfrWidth)/2, ty+(float64(vwHeight)-sfrHeight)/2)
	}
	return geom, filter
}
