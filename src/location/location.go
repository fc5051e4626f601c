package location

import (
	"errors"
	"sync"

	"github.com/xleiu/VenueSearch/src/types"
)

var ErrNoCoordinates = errors.New("location: empty coordinate batch")

// Static always reports the same fix. With AutoGrant a permission request is
// answered with while-in-use authorization.
type Static struct {
	mu        sync.Mutex
	fix       types.Coordinate
	enabled   bool
	status    types.AuthorizationStatus
	autoGrant bool
	delegate  types.LocationDelegate
}

func NewStatic(fix types.Coordinate, status types.AuthorizationStatus, autoGrant bool) *Static {
	return &Static{
		fix:       fix,
		enabled:   true,
		status:    status,
		autoGrant: autoGrant,
	}
}

func (s *Static) SetDelegate(d types.LocationDelegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = d
}

func (s *Static) ServiceEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Static) AuthorizationStatus() types.AuthorizationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Static) RequestPermission() {
	s.mu.Lock()
	if !s.autoGrant || s.status != types.NotDetermined {
		s.mu.Unlock()
		return
	}
	s.status = types.AuthorizedWhenInUse
	d := s.delegate
	s.mu.Unlock()

	if d != nil {
		d.OnAuthorizationChanged(types.AuthorizedWhenInUse)
	}
}

func (s *Static) RequestOneShotLocation() {
	s.mu.Lock()
	d, fix := s.delegate, s.fix
	s.mu.Unlock()

	if d != nil {
		d.OnLocationUpdate([]types.Coordinate{fix})
	}
}

// Pending lists the requests a Remote device has not answered yet.
type Pending struct {
	Permission bool `json:"permission"`
	Location   bool `json:"location"`
}

// Remote is a device that lives on the other side of the API: requests are
// recorded for the client to pick up, and the client reports back.
type Remote struct {
	mu       sync.Mutex
	enabled  bool
	status   types.AuthorizationStatus
	pending  Pending
	delegate types.LocationDelegate
}

func NewRemote() *Remote {
	return &Remote{enabled: true}
}

func (r *Remote) SetDelegate(d types.LocationDelegate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delegate = d
}

func (r *Remote) ServiceEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *Remote) AuthorizationStatus() types.AuthorizationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Remote) RequestPermission() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == types.NotDetermined {
		r.pending.Permission = true
	}
}

func (r *Remote) RequestOneShotLocation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending.Location = true
}

func (r *Remote) Pending() Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

func (r *Remote) ReportServiceEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

func (r *Remote) ReportAuthorization(status types.AuthorizationStatus) {
	r.mu.Lock()
	changed := r.status != status
	r.status = status
	r.pending.Permission = false
	d := r.delegate
	r.mu.Unlock()

	if changed && d != nil {
		d.OnAuthorizationChanged(status)
	}
}

func (r *Remote) ReportLocation(coordinates []types.Coordinate) error {
	if len(coordinates) == 0 {
		return ErrNoCoordinates
	}
	r.mu.Lock()
	r.pending.Location = false
	d := r.delegate
	r.mu.Unlock()

	if d != nil {
		d.OnLocationUpdate(coordinates)
	}
	return nil
}

func (r *Remote) ReportFailure(reason string) {
	r.mu.Lock()
	r.pending.Location = false
	d := r.delegate
	r.mu.Unlock()

	if d != nil {
		d.OnLocationFailure(errors.New(reason))
	}
}
