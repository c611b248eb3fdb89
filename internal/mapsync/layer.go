package mapsync

import (
	"sync"

	"github.com/golang/geo/s2"
)

// Surface is what the synchronizer needs from a map provider: place a
// marker with its popup, open and close popups, and clear the map.
type Surface interface {
	PopupSurface
	PlaceMarker(a Annotation)
	Clear()
}

// Default map center when no marker has been placed: Seoul City Hall.
const (
	DefaultCenterLat = 37.5665
	DefaultCenterLon = 126.978
)

// MarkerView is a placed marker as seen by a presentation client.
type MarkerView struct {
	Annotation
	PopupOpen bool `json:"popup_open"`
}

// Viewport is the rectangle covering every placed marker.
type Viewport struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	South     float64 `json:"south"`
	West      float64 `json:"west"`
	North     float64 `json:"north"`
	East      float64 `json:"east"`
}

// Layer is an in-memory Surface. It records markers in placement order and
// tracks which popups are visible, so the map state can be served over HTTP
// and asserted in tests.
type Layer struct {
	mu      sync.RWMutex
	order   []MarkerID
	markers map[MarkerID]Annotation
	visible map[MarkerID]bool
	bounds  s2.Rect
}

// NewLayer creates an empty Layer.
func NewLayer() *Layer {
	return &Layer{
		markers: make(map[MarkerID]Annotation),
		visible: make(map[MarkerID]bool),
		bounds:  s2.EmptyRect(),
	}
}

func (l *Layer) PlaceMarker(a Annotation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.markers[a.ID]; !ok {
		l.order = append(l.order, a.ID)
	}
	l.markers[a.ID] = a
	l.bounds = l.bounds.AddPoint(s2.LatLngFromDegrees(a.Lat, a.Lon))
}

func (l *Layer) OpenPopup(id MarkerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.markers[id]; ok {
		l.visible[id] = true
	}
}

func (l *Layer) ClosePopup(id MarkerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.visible, id)
}

func (l *Layer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = nil
	l.markers = make(map[MarkerID]Annotation)
	l.visible = make(map[MarkerID]bool)
	l.bounds = s2.EmptyRect()
}

// Has reports whether a marker is on the map.
func (l *Layer) Has(id MarkerID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.markers[id]
	return ok
}

// Markers returns the placed markers in placement order.
func (l *Layer) Markers() []MarkerView {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]MarkerView, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, MarkerView{Annotation: l.markers[id], PopupOpen: l.visible[id]})
	}
	return out
}

// VisiblePopups returns the markers whose popup is open.
func (l *Layer) VisiblePopups() []MarkerID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []MarkerID
	for _, id := range l.order {
		if l.visible[id] {
			out = append(out, id)
		}
	}
	return out
}

// Viewport returns the rectangle covering every marker, or a zero-size
// viewport on the default center when the map is empty.
func (l *Layer) Viewport() Viewport {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.bounds.IsEmpty() {
		return Viewport{
			CenterLat: DefaultCenterLat, CenterLon: DefaultCenterLon,
			South: DefaultCenterLat, West: DefaultCenterLon,
			North: DefaultCenterLat, East: DefaultCenterLon,
		}
	}
	center := l.bounds.Center()
	lo, hi := l.bounds.Lo(), l.bounds.Hi()
	return Viewport{
		CenterLat: center.Lat.Degrees(),
		CenterLon: center.Lng.Degrees(),
		South:     lo.Lat.Degrees(),
		West:      lo.Lng.Degrees(),
		North:     hi.Lat.Degrees(),
		East:      hi.Lng.Degrees(),
	}
}
