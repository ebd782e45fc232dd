package view

import (
	"fmt"
	"strconv"
)

// DefaultSliderPosition splits the comparison view in half.
const DefaultSliderPosition = 50.0

// Rect is the measured horizontal extent of the comparison container.
type Rect struct {
	Left  float64
	Width float64
}

// Slider is the drag state of the before/after comparison. The "before"
// image is clipped to the left Position percent of the container.
// Mouse and touch input are both reduced to a client x coordinate.
type Slider struct {
	position float64
	dragging bool
}

func NewSlider() *Slider {
	return &Slider{position: DefaultSliderPosition}
}

func (s *Slider) Position() float64 { return s.position }

func (s *Slider) Dragging() bool { return s.dragging }

func (s *Slider) Press() { s.dragging = true }

func (s *Slider) Release() { s.dragging = false }

// Move updates the position while dragging and reports whether it did.
// A container without width leaves the position alone.
func (s *Slider) Move(clientX float64, rect Rect) bool {
	if !s.dragging || rect.Width <= 0 {
		return false
	}
	s.position = clamp((clientX-rect.Left)/rect.Width*100, 0, 100)
	return true
}

// ImagesChanged ends any drag in progress; drag state never survives a
// new pair of images.
func (s *Slider) ImagesChanged() {
	s.dragging = false
}

// ClipStyle is the CSS clip-path for the "before" image.
func (s *Slider) ClipStyle() string {
	return fmt.Sprintf("inset(0 %s%% 0 0)", formatPercent(100-s.position))
}

// HandleStyle is the CSS left offset of the drag handle.
func (s *Slider) HandleStyle() string {
	return formatPercent(s.position) + "%"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
