package rrect

import (
	"context"
	"errors"
	"fmt"
)

// Size is a window or surface size in physical pixels.
type Size struct {
	Width, Height uint32
}

// Valid reports whether both dimensions are strictly positive.
func (s Size) Valid() bool { return s.Width > 0 && s.Height > 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// EventKind identifies a window-system event.
type EventKind uint8

const (
	EventCloseRequested EventKind = iota + 1
	EventResized
	EventScaleFactorChanged
	EventRedrawRequested
	EventMainEventsCleared
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventCloseRequested:
		return "CloseRequested"
	case EventResized:
		return "Resized"
	case EventScaleFactorChanged:
		return "ScaleFactorChanged"
	case EventRedrawRequested:
		return "RedrawRequested"
	case EventMainEventsCleared:
		return "MainEventsCleared"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event is one window-system event. Size is set for Resized and
// ScaleFactorChanged; ScaleFactor only for ScaleFactorChanged.
type Event struct {
	Kind        EventKind
	Size        Size
	ScaleFactor float64
}

// CloseRequested creates a close-requested event.
func CloseRequested() Event { return Event{Kind: EventCloseRequested} }

// Resized creates a resize event.
func Resized(width, height uint32) Event {
	return Event{Kind: EventResized, Size: Size{Width: width, Height: height}}
}

// ScaleFactorChanged creates a scale-factor event carrying the new
// physical size of the window.
func ScaleFactorChanged(scale float64, newSize Size) Event {
	return Event{Kind: EventScaleFactorChanged, Size: newSize, ScaleFactor: scale}
}

// RedrawRequested creates a redraw event.
func RedrawRequested() Event { return Event{Kind: EventRedrawRequested} }

// MainEventsCleared creates the end-of-batch event.
func MainEventsCleared() Event { return Event{Kind: EventMainEventsCleared} }

// ActionKind is the driver's decision for one event.
type ActionKind uint8

const (
	ActionContinue ActionKind = iota
	ActionRequestRedraw
	ActionReconfigure
	ActionExit
)

// String returns the action kind name.
func (k ActionKind) String() string {
	switch k {
	case ActionContinue:
		return "Continue"
	case ActionRequestRedraw:
		return "RequestRedraw"
	case ActionReconfigure:
		return "Reconfigure"
	case ActionExit:
		return "Exit"
	default:
		return fmt.Sprintf("ActionKind(%d)", k)
	}
}

// Action is returned by Driver.Step. Size is set for ActionReconfigure.
type Action struct {
	Kind ActionKind
	Size Size
}

// Renderer renders one frame. Errors are classified with errors.Is
// against ErrOutOfMemory, ErrSurfaceLost and ErrSurfaceOutdated.
type Renderer interface {
	RenderFrame() error
}

// Executor carries out the actions Driver.Run does not handle itself.
type Executor interface {
	Reconfigure(Size)
	RequestRedraw()
}

// Driver turns window events into actions. All control-flow decisions of
// the event loop live here; the host only delivers events and executes
// the returned actions.
type Driver struct {
	renderer Renderer

	err      error
	rendered uint64
	skipped  uint64
}

// NewDriver creates a driver rendering frames with r.
func NewDriver(r Renderer) *Driver {
	return &Driver{renderer: r}
}

// Step consumes one event and returns the action to take.
func (d *Driver) Step(ev Event) Action {
	switch ev.Kind {
	case EventCloseRequested:
		return Action{Kind: ActionExit}
	case EventResized, EventScaleFactorChanged:
		return Action{Kind: ActionReconfigure, Size: ev.Size}
	case EventMainEventsCleared:
		return Action{Kind: ActionRequestRedraw}
	case EventRedrawRequested:
		return d.redraw()
	default:
		return Action{Kind: ActionContinue}
	}
}

func (d *Driver) redraw() Action {
	err := d.renderer.RenderFrame()
	switch {
	case err == nil:
		d.rendered++
	case errors.Is(err, ErrOutOfMemory):
		Logger().Error("rrect: out of memory, exiting", "err", err)
		d.err = err
		return Action{Kind: ActionExit}
	case IsSurfaceRecoverable(err):
		d.skipped++
		Logger().Warn("rrect: surface recovered, frame skipped", "err", err)
	default:
		d.skipped++
		Logger().Warn("rrect: frame skipped", "err", err)
	}
	return Action{Kind: ActionContinue}
}

// Err returns the fatal error that made the driver exit, if any.
func (d *Driver) Err() error { return d.err }

// Stats returns the number of rendered and skipped frames.
func (d *Driver) Stats() (rendered, skipped uint64) { return d.rendered, d.skipped }

// Run consumes events until Exit, until events is closed, or until ctx is
// done. It returns the fatal error that caused Exit, nil for a normal
// close, or the context error.
func (d *Driver) Run(ctx context.Context, events <-chan Event, exec Executor) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a := d.Step(ev)
			switch a.Kind {
			case ActionExit:
				return d.err
			case ActionReconfigure:
				exec.Reconfigure(a.Size)
			case ActionRequestRedraw:
				exec.RequestRedraw()
			}
		}
	}
}
