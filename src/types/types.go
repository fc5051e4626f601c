package types

import (
	"fmt"
)

type Category string

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Venue struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Distance int     `json:"distance"`
	Rating   float64 `json:"rating"`
}

// VenueViewRow is what the presenter keeps for rendering. It mirrors Venue so
// the view never depends on the transport shape.
type VenueViewRow struct {
	Name     string
	Address  string
	Distance int
	Rating   float64
}

type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Denied
	Restricted
	AuthorizedWhenInUse
	AuthorizedAlways
)

var statusNames = map[AuthorizationStatus]string{
	NotDetermined:       "notDetermined",
	Denied:              "denied",
	Restricted:          "restricted",
	AuthorizedWhenInUse: "authorizedWhenInUse",
	AuthorizedAlways:    "authorizedAlways",
}

func (s AuthorizationStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AuthorizationStatus(%d)", int(s))
}

func ParseAuthorizationStatus(s string) (AuthorizationStatus, error) {
	for status, name := range statusNames {
		if name == s {
			return status, nil
		}
	}
	return NotDetermined, fmt.Errorf("unknown authorization status %q", s)
}

type AlertKind int

const (
	LocationDisabled AlertKind = iota
	WaitingForLocation
	InvalidRequest
	LocationError
	ServiceError
)

func (k AlertKind) String() string {
	switch k {
	case LocationDisabled:
		return "locationDisabled"
	case WaitingForLocation:
		return "waitingForLocation"
	case InvalidRequest:
		return "invalidRequest"
	case LocationError:
		return "locationError"
	case ServiceError:
		return "serviceError"
	}
	return fmt.Sprintf("AlertKind(%d)", int(k))
}

type FetchErrorKind int

const (
	Network FetchErrorKind = iota
	Status
	Decode
)

func (k FetchErrorKind) String() string {
	switch k {
	case Network:
		return "network"
	case Status:
		return "status"
	case Decode:
		return "decode"
	}
	return fmt.Sprintf("FetchErrorKind(%d)", int(k))
}

// FetchError is the only error a VenueSearchPort hands to its callback.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == Status:
		return fmt.Sprintf("venue service responded with status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("venue %s error: %s", e.Kind, e.Err)
	default:
		return fmt.Sprintf("venue %s error", e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type LocationPort interface {
	ServiceEnabled() bool
	AuthorizationStatus() AuthorizationStatus
	RequestPermission()
	RequestOneShotLocation()
}

// LocationDelegate receives the asynchronous outcome of LocationPort requests.
type LocationDelegate interface {
	OnLocationUpdate(coordinates []Coordinate)
	OnLocationFailure(err error)
	OnAuthorizationChanged(status AuthorizationStatus)
}

type VenueSearchPort interface {
	Search(category Category, at Coordinate, onComplete func([]Venue, error))
}

type View interface {
	StartLoading()
	FinishLoading()
	ShowVenues(hasResults bool)
	ShowAlert(title, message string, kind AlertKind)
	SelectorInteractive() bool
	SetSelectorInteractive(enabled bool)
}
