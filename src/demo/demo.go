package demo

import (
	"strconv"
	"strings"
	"time"

	"github.com/xleiu/VenueSearch/src/types"
)

const venueCount = 21

// VenueService answers every search with the same generated venues after Delay.
type VenueService struct {
	Delay time.Duration
}

func (s VenueService) Search(category types.Category, at types.Coordinate, onComplete func([]types.Venue, error)) {
	venues := Venues()
	time.AfterFunc(s.Delay, func() {
		onComplete(venues, nil)
	})
}

// Venues returns "test0", "test11", "test222", ... with growing addresses.
func Venues() []types.Venue {
	venues := make([]types.Venue, 0, venueCount)
	for n := 0; n < venueCount; n++ {
		suffix := strings.Repeat(strconv.Itoa(n), n+1)
		venues = append(venues, types.Venue{
			Name:     "test" + suffix,
			Address:  "espoo " + suffix,
			Distance: 10,
			Rating:   2.3,
		})
	}
	return venues
}
