package mapsync

import "sync"

// PopupSurface opens and closes popups on a map.
type PopupSurface interface {
	OpenPopup(id MarkerID)
	ClosePopup(id MarkerID)
}

// ToggleResult is the outcome of a marker click.
type ToggleResult string

const (
	PopupOpened ToggleResult = "opened"
	PopupClosed ToggleResult = "closed"
)

// PopupState is the single cell holding the currently open popup. All
// transitions go through Toggle and Reset, which run the surface calls under
// one lock so two popups are never open at once.
type PopupState struct {
	mu   sync.Mutex
	open MarkerID
}

// Open returns the currently open popup, or "" when none is.
func (p *PopupState) Open() MarkerID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Toggle applies a click on marker id: clicking the open popup's marker
// closes it; clicking any other marker closes the open popup first, then
// opens the clicked one.
func (p *PopupState) Toggle(id MarkerID, surface PopupSurface) ToggleResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open == id {
		surface.ClosePopup(id)
		p.open = ""
		return PopupClosed
	}
	if p.open != "" {
		surface.ClosePopup(p.open)
	}
	surface.OpenPopup(id)
	p.open = id
	return PopupOpened
}

// Reset closes the open popup, if any.
func (p *PopupState) Reset(surface PopupSurface) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open != "" {
		surface.ClosePopup(p.open)
		p.open = ""
	}
}
