package presenter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xleiu/VenueSearch/src/types"
)

const ratingSuffix = "⭐️"

var ErrRowOutOfRange = errors.New("row out of range")

type VenueCell struct {
	Title    string `json:"title"`
	Address  string `json:"address"`
	Distance string `json:"distance"`
	Rating   string `json:"rating"`
}

func (p *Presenter) RowCount() int {
	return len(p.venues)
}

func (p *Presenter) RowAt(index int) (VenueCell, error) {
	if index < 0 || index >= len(p.venues) {
		return VenueCell{}, fmt.Errorf("%w: %d not in [0, %d)", ErrRowOutOfRange, index, len(p.venues))
	}
	return formatCell(p.venues[index]), nil
}

// Rows returns the raw rows currently displayed, for exports.
func (p *Presenter) Rows() []types.VenueViewRow {
	return append([]types.VenueViewRow(nil), p.venues...)
}

func formatCell(row types.VenueViewRow) VenueCell {
	return VenueCell{
		Title:    row.Name,
		Address:  row.Address,
		Distance: strconv.Itoa(row.Distance) + "m",
		Rating:   FormatRating(row.Rating) + ratingSuffix,
	}
}

// FormatRating always keeps one fractional digit for whole numbers: 8 -> "8.0".
func FormatRating(rating float64) string {
	s := strconv.FormatFloat(rating, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
