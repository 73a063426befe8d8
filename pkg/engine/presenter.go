package engine

import (
	"errors"

	"github.com/go-flint/flint/pkg/rendering"
)

// ErrSurfaceLost signals that the presentation surface became invalid while
// presenting. The coordinator keeps the frame's paint state dirty so the
// next frame re-presents instead of skipping.
var ErrSurfaceLost = errors.New("engine: presentation surface lost")

// Presenter receives the composited layer tree at the end of each frame.
type Presenter interface {
	Present(layer *rendering.Layer) error
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(layer *rendering.Layer) error

func (f PresenterFunc) Present(layer *rendering.Layer) error {
	return f(layer)
}
