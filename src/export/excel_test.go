package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xleiu/VenueSearch/src/types"
)

func TestWriteVenues(t *testing.T) {
	rows := []types.VenueViewRow{
		{Name: "name1", Address: "address1", Distance: 300, Rating: 8},
		{Name: "name2", Address: "address2", Distance: 200, Rating: 5.5},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVenues(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "Address", "Distance (m)", "Rating"},
		{"name1", "address1", "300", "8"},
		{"name2", "address2", "200", "5.5"},
	}, got)
}

func TestWriteVenuesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVenues(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
