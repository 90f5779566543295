package main

import (
	"github.com/gogpu/rrect/config"
	"github.com/gogpu/rrect/text"
)

// newOverlay builds the text overlay from the configuration with the
// built-in sans-serif face. It returns nil when there is no text.
func newOverlay(cfg *config.Config) (*text.Overlay, error) {
	bufs, err := cfg.TextBuffers()
	if err != nil || len(bufs) == 0 {
		return nil, err
	}
	face, err := text.DefaultFace()
	if err != nil {
		return nil, err
	}
	o := text.NewOverlay(face)
	for _, b := range bufs {
		o.Add(b)
	}
	return o, nil
}
