package render

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// Substrate is a scene.Substrate and scene.Viewport that tracks the entities
// it was told about and the world region to show. Drawing reads the scene
// directly; the substrate only frames it.
type Substrate struct {
	mu        sync.Mutex
	width     int
	height    int
	rect      r2.Box
	known     map[scene.Ref]struct{}
	repaints  uint64
	onRepaint func()
	logger    logging.Logger
}

// NewSubstrate creates a substrate of the given size in device units.
// onRepaint, if set, is called on every repaint request and must not block.
func NewSubstrate(width, height int, onRepaint func(), logger logging.Logger) *Substrate {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Substrate{
		width:     width,
		height:    height,
		known:     make(map[scene.Ref]struct{}),
		onRepaint: onRepaint,
		logger:    logger.With(logging.Component("substrate")),
	}
}

// Add registers ref. Adding a ref twice is logged and ignored.
func (s *Substrate) Add(ref scene.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[ref]; ok {
		s.logger.Warn("duplicate add", logging.String("ref", ref.String()))
		return
	}
	s.known[ref] = struct{}{}
}

// Remove unregisters ref. Removing an unknown ref is logged and ignored.
func (s *Substrate) Remove(ref scene.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[ref]; !ok {
		s.logger.Warn("remove of unknown entity", logging.String("ref", ref.String()))
		return
	}
	delete(s.known, ref)
}

// RequestRepaint notifies the owner that a new frame is ready.
func (s *Substrate) RequestRepaint() {
	s.mu.Lock()
	s.repaints++
	cb := s.onRepaint
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// ViewportSize returns the device size.
func (s *Substrate) ViewportSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// SetVisibleRect records the world region to frame.
func (s *Substrate) SetVisibleRect(rect r2.Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rect = rect
}

// VisibleRect returns the last region set by SetVisibleRect.
func (s *Substrate) VisibleRect() r2.Box {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rect
}

// Resize changes the device size.
func (s *Substrate) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// Known returns how many entities are currently registered.
func (s *Substrate) Known() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.known)
}

// Repaints returns how many repaints were requested.
func (s *Substrate) Repaints() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repaints
}

// Frame draws sc onto a canvas of the current size framing the visible
// rect. Call it while holding the scene's guard.
func (s *Substrate) Frame(sc *scene.Scene) *Canvas {
	s.mu.Lock()
	w, h, rect := s.width, s.height, s.rect
	s.mu.Unlock()

	c := NewCanvas(w, h, rect)
	Draw(c, Sprites(sc))
	return c
}
