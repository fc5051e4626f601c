package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/xleiu/VenueSearch/src/types"
)

const SheetName = "Venues"

var headers = []interface{}{"Name", "Address", "Distance (m)", "Rating"}

// NewWorkbook puts rows on a single sheet, in display order.
func NewWorkbook(rows []types.VenueViewRow) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, err
	}

	if err := sw.SetRow("A1", headers); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{r.Name, r.Address, r.Distance, r.Rating}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, err
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")
	return f, nil
}

func WriteVenues(w io.Writer, rows []types.VenueViewRow) error {
	f, err := NewWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}
