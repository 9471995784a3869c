package mapview

import (
	"context"
	"errors"
	"sync"

	"github.com/kcho760/BlockBuzzNYC-sub000/internal/pin"
	"github.com/kcho760/BlockBuzzNYC-sub000/internal/shared/geo"

	"github.com/google/uuid"
)

// FallbackLocation is used when a session resolves without a device fix.
var FallbackLocation = geo.Point{Lat: 40.7128, Lng: -74.0060}

const defaultZoom = 15

type State string

const (
	StateUninitialized     State = "uninitialized"
	StatePermissionPending State = "permission_pending"
	StateLocationResolving State = "location_resolving"
	StateSynced            State = "synced"
	StateBlocked           State = "blocked"
)

var (
	ErrSessionNotFound   = errors.New("map session not found")
	ErrPermissionBlocked = errors.New("location permission denied")
	ErrNotReady          = errors.New("session has not resolved permissions")
	ErrUnknownMarker     = errors.New("marker not rendered in this session")
)

// PinSource is the slice of the pin service the map controller needs.
type PinSource interface {
	All(ctx context.Context) ([]pin.Pin, error)
	Get(ctx context.Context, id string) (pin.Pin, error)
}

// CreateIntent is emitted by a long-press: the coordinate the new pin should
// be dropped at. It carries no pin data and causes no state transition.
type CreateIntent struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Controller struct {
	pins    PinSource
	radiusM float64

	mu       sync.RWMutex
	sessions map[string]*Session
}

type Session struct {
	ID string

	mu      sync.Mutex
	state   State
	center  geo.Point
	zoom    int
	markers map[string]pin.Pin
}

func NewController(pins PinSource, radiusM float64) *Controller {
	if radiusM <= 0 {
		radiusM = geo.DefaultRadiusM
	}
	return &Controller{
		pins:     pins,
		radiusM:  radiusM,
		sessions: map[string]*Session{},
	}
}

func (c *Controller) CreateSession() *Session {
	s := &Session{
		ID:      uuid.NewString(),
		state:   StateUninitialized,
		zoom:    defaultZoom,
		markers: map[string]pin.Pin{},
	}
	c.mu.Lock()
	c.sessions[s.ID] = s
	c.mu.Unlock()
	return s
}

func (c *Controller) Session(id string) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (c *Controller) DropSession(id string) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
}

// PromptPermissions marks the permission dialog as shown on first render;
// the session waits in PermissionPending until CheckPermissions observes the
// answer. Later renders leave the state alone.
func (s *Session) PromptPermissions() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUninitialized {
		s.state = StatePermissionPending
	}
	return s.state
}

// CheckPermissions observes the permission grant result. A denied grant
// blocks the session; no map or location call may run from Blocked.
func (s *Session) CheckPermissions(granted bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUninitialized, StatePermissionPending:
		if granted {
			s.state = StateLocationResolving
		} else {
			s.state = StateBlocked
		}
	case StateBlocked:
		// a later grant unblocks (user flipped the setting and retried)
		if granted {
			s.state = StateLocationResolving
		}
	}
	return s.state
}

// ResolveLocation takes a device fix (or the NYC fallback when fix is nil),
// fetches all pins, filters them by the visibility radius and replaces the
// rendered marker set wholesale. Synced sessions re-enter resolving on a
// manual recenter, which is just another call to this method.
func (c *Controller) ResolveLocation(ctx context.Context, s *Session, fix *geo.Point) ([]pin.Pin, error) {
	s.mu.Lock()
	switch s.state {
	case StateBlocked:
		s.mu.Unlock()
		return nil, ErrPermissionBlocked
	case StateUninitialized, StatePermissionPending:
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	s.state = StateLocationResolving
	center := FallbackLocation
	if fix != nil {
		center = *fix
	}
	s.center = center
	s.mu.Unlock()

	all, err := c.pins.All(ctx)
	if err != nil {
		return nil, err
	}

	// clear-and-redraw: the previous marker set is discarded entirely
	markers := map[string]pin.Pin{}
	var visible []pin.Pin
	for _, p := range all {
		if geo.IsWithinRadius(center, geo.Point{Lat: p.Lat, Lng: p.Lng}, c.radiusM) {
			markers[p.ID] = p
			visible = append(visible, p)
		}
	}

	s.mu.Lock()
	s.markers = markers
	s.state = StateSynced
	s.mu.Unlock()
	return visible, nil
}

// TapMarker fetches the pin's latest server state so concurrent likes and
// edits show up. If the fetch fails, the cached marker copy is returned
// instead of an error.
func (c *Controller) TapMarker(ctx context.Context, s *Session, pinID string) (pin.Pin, error) {
	s.mu.Lock()
	if s.state == StateBlocked {
		s.mu.Unlock()
		return pin.Pin{}, ErrPermissionBlocked
	}
	cached, hasCached := s.markers[pinID]
	s.mu.Unlock()

	latest, err := c.pins.Get(ctx, pinID)
	if err != nil {
		if hasCached {
			return cached, nil
		}
		return pin.Pin{}, ErrUnknownMarker
	}

	s.mu.Lock()
	if _, ok := s.markers[pinID]; ok {
		s.markers[pinID] = latest
	}
	s.mu.Unlock()
	return latest, nil
}

// LongPress emits a create-pin intent for the tapped coordinate.
func (s *Session) LongPress(pt geo.Point) CreateIntent {
	return CreateIntent{Lat: pt.Lat, Lng: pt.Lng}
}

func (s *Session) ZoomIn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom++
	return s.zoom
}

func (s *Session) ZoomOut() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom--
	return s.zoom
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Zoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

func (s *Session) Center() geo.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// Markers returns the currently rendered marker set.
func (s *Session) Markers() []pin.Pin {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pin.Pin, 0, len(s.markers))
	for _, p := range s.markers {
		out = append(out, p)
	}
	return out
}
