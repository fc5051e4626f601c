package presenter

import (
	"log"
	"net/url"

	"github.com/xleiu/VenueSearch/src/types"
)

// DefaultCategories returns the categories used when New is given none.
func DefaultCategories() []types.Category {
	return []types.Category{
		"food", "drinks", "coffee", "shops", "arts", "outdoors", "sights", "trending", "topPicks",
	}
}

// Presenter coordinates location permission, location fixes and venue
// fetches into the state of a single View. It is not safe for concurrent use:
// all methods and all port completions must run on one execution context.
type Presenter struct {
	search     types.VenueSearchPort
	location   types.LocationPort
	categories []types.Category

	currentLocation *types.Coordinate
	selectorEnabled bool
	venues          []types.VenueViewRow

	view    types.View
	session uint64
}

func New(search types.VenueSearchPort, location types.LocationPort, categories ...types.Category) *Presenter {
	if len(categories) == 0 {
		categories = DefaultCategories()
	}
	return &Presenter{
		search:     search,
		location:   location,
		categories: append([]types.Category(nil), categories...),
	}
}

func (p *Presenter) Categories() []types.Category {
	return append([]types.Category(nil), p.categories...)
}

func (p *Presenter) AttachView(view types.View) {
	p.session++
	p.view = view
	p.selectorEnabled = false
	view.SetSelectorInteractive(false)
}

func (p *Presenter) DetachView() {
	p.session++
	p.view = nil
}

func (p *Presenter) ViewWillAppear() {
	p.location.RequestPermission()
	if p.isLocationEnabled() {
		p.location.RequestOneShotLocation()
	}
}

func (p *Presenter) ShowSelectedVenue(category types.Category) {
	if !p.isLocationEnabled() {
		p.alert("Location Disabled", "Please enable location", types.LocationDisabled)
		return
	}

	if p.currentLocation == nil {
		p.location.RequestOneShotLocation()
		p.alert("Getting Location", "Please wait", types.WaitingForLocation)
		return
	}

	if !validCategory(category) {
		p.alert("Venue Error", "venue category is invalid", types.InvalidRequest)
		return
	}

	p.fetch(category, *p.currentLocation)
}

func (p *Presenter) OnLocationUpdate(coordinates []types.Coordinate) {
	if len(coordinates) == 0 {
		return
	}
	last := coordinates[len(coordinates)-1]
	p.currentLocation = &last

	if p.selectorEnabled || p.view == nil {
		return
	}
	p.selectorEnabled = true
	p.view.SetSelectorInteractive(true)
	p.fetch(p.categories[0], last)
}

func (p *Presenter) OnLocationFailure(err error) {
	log.Printf("location error: %s", err)
	p.alert("Location Error", err.Error(), types.LocationError)
}

func (p *Presenter) OnAuthorizationChanged(status types.AuthorizationStatus) {
	if status != types.AuthorizedAlways && status != types.AuthorizedWhenInUse {
		return
	}
	if p.currentLocation == nil {
		p.location.RequestOneShotLocation()
	}
}

func (p *Presenter) isLocationEnabled() bool {
	if !p.location.ServiceEnabled() {
		return false
	}
	return p.location.AuthorizationStatus() == types.AuthorizedWhenInUse
}

func (p *Presenter) fetch(category types.Category, at types.Coordinate) {
	if p.view == nil {
		return
	}
	p.view.StartLoading()

	session := p.session
	p.search.Search(category, at, func(venues []types.Venue, err error) {
		if session != p.session || p.view == nil {
			log.Printf("dropping %q result: view detached", category)
			return
		}
		p.view.FinishLoading()

		if err != nil {
			p.alert("Venue Service Error", err.Error(), types.ServiceError)
			return
		}
		if len(venues) == 0 {
			p.venues = nil
			p.view.ShowVenues(false)
			return
		}

		rows := make([]types.VenueViewRow, len(venues))
		for i, v := range venues {
			rows[i] = types.VenueViewRow{
				Name:     v.Name,
				Address:  v.Address,
				Distance: v.Distance,
				Rating:   v.Rating,
			}
		}
		p.venues = rows
		p.view.ShowVenues(true)
	})
}

func (p *Presenter) alert(title, message string, kind types.AlertKind) {
	if p.view == nil {
		return
	}
	p.view.ShowAlert(title, message, kind)
}

// validCategory accepts non-empty tokens made only of unreserved URL characters.
func validCategory(category types.Category) bool {
	s := string(category)
	return s != "" && url.QueryEscape(s) == s
}
