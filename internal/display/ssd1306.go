/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package display

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// Glyph metrics for basicfont.Face7x13, packed one pixel tighter than the
// face height so five text lines fit a 64px panel.
const (
	lineAscent = 11
	lineHeight = 12
)

// panel is the subset of *ssd1306.Dev the driver uses.
type panel interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Bounds() image.Rectangle
	Halt() error
	Invert(blackOnWhite bool) error
	StopScroll() error
	SetContrast(level byte) error
}

// SSD1306 renders text natively on an I²C SSD1306 panel.
type SSD1306 struct {
	bus    i2c.BusCloser
	logger zerolog.Logger

	mu    sync.Mutex
	panel panel
	frame *image1bit.VerticalLSB
}

// OpenSSD1306 initializes the host drivers and opens the panel on busName
// ("" selects the first available bus).
func OpenSSD1306(busName string, logger zerolog.Logger) (*SSD1306, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("open ssd1306: %w", err)
	}

	return newSSD1306(dev, bus, logger), nil
}

func newSSD1306(p panel, bus i2c.BusCloser, logger zerolog.Logger) *SSD1306 {
	return &SSD1306{
		bus:    bus,
		panel:  p,
		frame:  image1bit.NewVerticalLSB(p.Bounds()),
		logger: logger.With().Str("component", "display").Str("driver", DriverSSD1306).Logger(),
	}
}

// Write renders text and draws it.
func (s *SSD1306) Write(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := renderText(s.panel.Bounds(), text)
	if err := s.panel.Draw(frame.Bounds(), frame, image.Point{}); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	s.frame = frame
	return nil
}

// PowerOn wakes the panel. Draw skips unchanged frames, so a command is
// sent first: the driver prefixes the display-on byte to the first command
// after Halt. With init it also restores full contrast, stops scrolling
// and clears the frame.
func (s *SSD1306) PowerOn(ctx context.Context, init bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.panel.Invert(false); err != nil {
		return fmt.Errorf("ssd1306 power on: %w", err)
	}
	if init {
		if err := s.panel.StopScroll(); err != nil {
			return fmt.Errorf("ssd1306 stop scroll: %w", err)
		}
		if err := s.panel.SetContrast(0xFF); err != nil {
			return fmt.Errorf("ssd1306 contrast: %w", err)
		}
		s.frame = image1bit.NewVerticalLSB(s.panel.Bounds())
	}
	if err := s.panel.Draw(s.frame.Bounds(), s.frame, image.Point{}); err != nil {
		return fmt.Errorf("ssd1306 power on: %w", err)
	}
	return nil
}

// PowerOff halts the panel; the last frame is kept for PowerOn.
func (s *SSD1306) PowerOff(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.panel.Halt(); err != nil {
		return fmt.Errorf("ssd1306 power off: %w", err)
	}
	return nil
}

// Close releases the I²C bus.
func (s *SSD1306) Close() error {
	if s.bus == nil {
		return nil
	}
	return s.bus.Close()
}

// renderText draws text into a 1-bit frame. Blank lines only pad the
// character-cell layout and are dropped; lines past the bottom are clipped.
func renderText(bounds image.Rectangle, text string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(bounds)
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: basicfont.Face7x13,
	}

	y := bounds.Min.Y + lineAscent
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if y > bounds.Max.Y {
			break
		}
		d.Dot = fixed.P(bounds.Min.X, y)
		d.DrawString(line)
		y += lineHeight
	}
	return img
}
