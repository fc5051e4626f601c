package handlers

import (
	"sync"

	"github.com/google/uuid"

	"github.com/xleiu/VenueSearch/src/types"
)

const maxAlerts = 20

type Alert struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

type Snapshot struct {
	Loading             bool    `json:"loading"`
	HasVenues           bool    `json:"has_venues"`
	SelectorInteractive bool    `json:"selector_interactive"`
	Alerts              []Alert `json:"alerts"`
}

// WebView keeps the state the presenter pushes so HTTP clients can poll it.
type WebView struct {
	mu    sync.Mutex
	state Snapshot
}

func NewWebView() *WebView {
	return &WebView{}
}

func (v *WebView) StartLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Loading = true
}

func (v *WebView) FinishLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Loading = false
}

func (v *WebView) ShowVenues(hasResults bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.HasVenues = hasResults
}

func (v *WebView) ShowAlert(title, message string, kind types.AlertKind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Alerts = append(v.state.Alerts, Alert{
		ID:      uuid.NewString(),
		Title:   title,
		Message: message,
		Kind:    kind.String(),
	})
	if n := len(v.state.Alerts); n > maxAlerts {
		v.state.Alerts = append([]Alert(nil), v.state.Alerts[n-maxAlerts:]...)
	}
}

func (v *WebView) SelectorInteractive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.SelectorInteractive
}

func (v *WebView) SetSelectorInteractive(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.SelectorInteractive = enabled
}

func (v *WebView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Alerts = append([]Alert{}, v.state.Alerts...)
	return s
}

// DismissAlert removes the alert with id and reports whether it was there.
func (v *WebView) DismissAlert(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, a := range v.state.Alerts {
		if a.ID == id {
			v.state.Alerts = append(v.state.Alerts[:i], v.state.Alerts[i+1:]...)
			return true
		}
	}
	return false
}
