package writer

import (
	"fmt"

	"github.com/roach88/spine/internal/ir"
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SocialPresets are the aspect ratios Reformat knows by name.
var SocialPresets = map[string]Resolution{
	"9:16": {1080, 1920},
	"1:1":  {1080, 1080},
	"4:5":  {1080, 1350},
	"16:9": {1920, 1080},
	"4:3":  {1440, 1080},
}

// ReformatResult names the format the timeline now uses.
type ReformatResult struct {
	FormatID string `json:"format_id"`
	Name     string `json:"name"`
	Resolution
	Created bool `json:"created"`
}

// Reformat points the timeline at a format of the given size, keeping the
// current frame rate. A matching format resource is reused; otherwise one
// named FFVideoFormat<w>x<h> is added. Assets keep their own formats.
func (e *Editor) Reformat(preset string, size Resolution) (ReformatResult, error) {
	if preset != "" {
		p, ok := SocialPresets[preset]
		if !ok {
			return ReformatResult{}, ir.Formatf("unknown preset %q", preset)
		}
		size = p
	}
	if size.Width <= 0 || size.Height <= 0 {
		return ReformatResult{}, ir.Formatf("resolution must be positive, got %dx%d", size.Width, size.Height)
	}
	var res ReformatResult
	err := e.apply("reformat", func(tl *ir.Timeline) error {
		fd := tl.FrameRate().FrameDuration()
		if cur := tl.FormatResource(); cur != nil && cur.FrameDuration.Sign() > 0 {
			fd = cur.FrameDuration
		}
		for _, r := range tl.Resources.Items() {
			f, ok := r.(*ir.Format)
			if ok && f.Width == size.Width && f.Height == size.Height && f.FrameDuration.Equal(fd) {
				tl.Format = f.ID
				res = ReformatResult{FormatID: f.ID, Name: f.Name, Resolution: size}
				return nil
			}
		}
		f := &ir.Format{
			ID:            tl.Resources.NextID(),
			Name:          fmt.Sprintf("FFVideoFormat%dx%d", size.Width, size.Height),
			FrameDuration: fd,
			Width:         size.Width,
			Height:        size.Height,
		}
		if err := tl.Resources.Add(f); err != nil {
			return err
		}
		tl.Format = f.ID
		res = ReformatResult{FormatID: f.ID, Name: f.Name, Resolution: size, Created: true}
		return nil
	})
	return res, err
}
