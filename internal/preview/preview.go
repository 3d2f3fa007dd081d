// Package preview composes the video-mode frame: the shot under the
// playhead rendered as a status card with its reference strip and the
// running timecode.
package preview

import (
	"context"
	"image"
	"sync"

	"github.com/gogpu/gg"
	log "github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/moviola/engine/internal/model"
	"github.com/moviola/engine/internal/store"
	"github.com/moviola/engine/internal/surface"
	"github.com/moviola/engine/internal/timecode"
)

const (
	refThumbSize = 96
	refStripPad  = 12
	cardWidth    = 1280
	cardHeight   = 720
)

// Compositor renders the video view from shared state. Reference images
// are loaded lazily and cached by path; a missing file logs once and
// the slot renders as a placeholder.
type Compositor struct {
	view store.View

	mu     sync.Mutex
	refs   map[string]*gg.ImageBuf
	missed map[string]bool
}

// NewCompositor creates a compositor over the given state view.
func NewCompositor(view store.View) *Compositor {
	return &Compositor{
		view:   view,
		refs:   make(map[string]*gg.ImageBuf),
		missed: make(map[string]bool),
	}
}

// Timecode returns the playhead position formatted for display.
func (c *Compositor) Timecode() string {
	tl := c.view.Timeline()
	fps := c.view.Project().Settings.FPS
	if fps <= 0 {
		fps = 24
	}
	return timecode.MustEncode(tl.FrameIndex(), fps)
}

// Render draws the current frame at the project resolution.
func (c *Compositor) Render() (image.Image, error) {
	tl := c.view.Timeline()
	settings := c.view.Project().Settings

	w, h := settings.Resolution.Width, settings.Resolution.Height
	if w < surface.MinCanvasWidth {
		w = surface.MinCanvasWidth
	}
	if h < surface.MinCanvasHeight {
		h = surface.MinCanvasHeight
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()

	shot, ok := tl.ShotAt(tl.PlayheadPosition)
	if !ok {
		dc.SetRGB(0.06, 0.06, 0.07)
		dc.DrawRectangle(0, 0, float64(w), float64(h))
		if err := dc.Fill(); err != nil {
			return nil, err
		}
		dc.SetRGBA(1, 1, 1, 0.4)
		dc.DrawStringAnchored("no shot at playhead", float64(w)/2, float64(h)/2, 0.5, 0.5)
	} else {
		if err := c.drawShot(dc, shot, w, h); err != nil {
			return nil, err
		}
	}

	c.drawTransport(dc, tl, w, h)

	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (c *Compositor) drawShot(dc *gg.Context, shot model.Shot, w, h int) error {
	r, g, b := statusColor(shot.Status)
	dc.SetRGB(r, g, b)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	if err := dc.Fill(); err != nil {
		return err
	}

	// Darkened lower band anchors the labels.
	dc.SetRGBA(0, 0, 0, 0.35)
	dc.DrawRectangle(0, float64(h)-120, float64(w), 120)
	if err := dc.Fill(); err != nil {
		return err
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(shot.Title, 24, float64(h)-90, 0, 0.5)
	dc.SetRGBA(1, 1, 1, 0.7)
	dc.DrawStringAnchored(shot.Prompt, 24, float64(h)-60, 0, 0.5)

	c.drawReferenceStrip(dc, shot.ReferenceImages)
	return nil
}

func (c *Compositor) drawReferenceStrip(dc *gg.Context, refs []model.ReferenceImage) {
	x := float64(refStripPad)
	y := float64(refStripPad)
	for _, ref := range refs {
		img := c.loadRef(ref.Path)
		if img == nil {
			dc.SetRGBA(1, 1, 1, 0.15)
			dc.DrawRectangle(x, y, refThumbSize, refThumbSize)
			_ = dc.Fill()
		} else {
			opacity := ref.Weight
			if opacity > 1 {
				opacity = 1
			}
			if opacity <= 0 {
				opacity = 0.05
			}
			dc.DrawImageEx(img, gg.DrawImageOptions{
				X:         x,
				Y:         y,
				DstWidth:  refThumbSize,
				DstHeight: refThumbSize,
				Opacity:   opacity,
			})
		}
		x += refThumbSize + refStripPad
	}
}

func (c *Compositor) loadRef(path string) *gg.ImageBuf {
	if path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if img, ok := c.refs[path]; ok {
		return img
	}
	if c.missed[path] {
		return nil
	}
	img, err := gg.LoadImage(path)
	if err != nil {
		log.Warnf("reference image %s: %v", path, err)
		c.missed[path] = true
		return nil
	}
	c.refs[path] = img
	return img
}

func (c *Compositor) drawTransport(dc *gg.Context, tl model.Timeline, w, h int) {
	// Progress bar along the bottom edge.
	dc.SetRGBA(1, 1, 1, 0.2)
	dc.DrawRectangle(0, float64(h)-6, float64(w), 6)
	_ = dc.Fill()
	if tl.Duration > 0 {
		frac := float64(tl.PlayheadPosition) / float64(tl.Duration)
		dc.SetRGBA(0.95, 0.76, 0.20, 0.95)
		dc.DrawRectangle(0, float64(h)-6, float64(w)*frac, 6)
		_ = dc.Fill()
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(c.Timecode(), float64(w)-24, float64(h)-30, 1, 0.5)
}

func statusColor(status model.GenerationStatus) (float64, float64, float64) {
	switch status {
	case model.StatusRunning:
		return 0.55, 0.42, 0.12
	case model.StatusDone:
		return 0.14, 0.32, 0.27
	case model.StatusFailed:
		return 0.40, 0.13, 0.13
	default:
		return 0.18, 0.19, 0.22
	}
}

// Thumbnail pairs a shot with its rendered strip image.
type Thumbnail struct {
	ShotID string
	Image  image.Image
}

// Thumbnails renders a strip thumbnail for every shot, at most workers
// at a time. Card rendering is CPU bound so the cap usually follows the
// core count.
func (c *Compositor) Thumbnails(ctx context.Context, thumbW, thumbH, workers int) ([]Thumbnail, error) {
	shots := c.view.Timeline().Shots
	if len(shots) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	out := make([]Thumbnail, len(shots))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range shots {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			card, err := c.renderCard(shots[i])
			if err != nil {
				return err
			}
			dst := image.NewRGBA(image.Rect(0, 0, thumbW, thumbH))
			xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), card, card.Bounds(), xdraw.Over, nil)
			out[i] = Thumbnail{ShotID: shots[i].ID, Image: dst}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Compositor) renderCard(shot model.Shot) (image.Image, error) {
	dc := gg.NewContext(cardWidth, cardHeight)
	defer dc.Close()
	if err := c.drawShot(dc, shot, cardWidth, cardHeight); err != nil {
		return nil, err
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}
