package rrect

import "errors"

// Scene validation errors.
var (
	// ErrMissingPaint is returned for a rectangle with neither fill nor stroke.
	ErrMissingPaint = errors.New("rrect: rectangle has no fill or stroke")

	// ErrInvalidRect is returned for a rectangle with out-of-range parameters.
	ErrInvalidRect = errors.New("rrect: invalid rectangle")

	// ErrSceneTooLarge is returned when the scene needs more vertices than
	// a 16-bit index buffer can address.
	ErrSceneTooLarge = errors.New("rrect: scene exceeds 16-bit index range")
)

// Frame errors reported by surfaces and the frame controller.
var (
	// ErrSurfaceLost means the surface must be reconfigured before use.
	ErrSurfaceLost = errors.New("rrect: surface lost")

	// ErrSurfaceOutdated means the surface no longer matches the window.
	ErrSurfaceOutdated = errors.New("rrect: surface outdated")

	// ErrSurfaceTimeout means no surface texture became available in time.
	ErrSurfaceTimeout = errors.New("rrect: surface acquire timed out")

	// ErrOutOfMemory means the graphics backend ran out of memory.
	// It is the only runtime error that ends the program.
	ErrOutOfMemory = errors.New("rrect: out of GPU memory")
)

// IsSurfaceRecoverable reports whether err is cured by reconfiguring the
// surface to the last known size.
func IsSurfaceRecoverable(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceOutdated)
}
