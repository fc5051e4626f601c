package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xleiu/VenueSearch/src/types"
)

type recorder struct {
	updates  [][]types.Coordinate
	failures []string
	statuses []types.AuthorizationStatus
}

func (r *recorder) OnLocationUpdate(c []types.Coordinate) { r.updates = append(r.updates, c) }
func (r *recorder) OnLocationFailure(err error)           { r.failures = append(r.failures, err.Error()) }
func (r *recorder) OnAuthorizationChanged(s types.AuthorizationStatus) {
	r.statuses = append(r.statuses, s)
}

var espoo = types.Coordinate{Lat: 60.2365327, Lon: 24.782747}

func TestStaticAutoGrant(t *testing.T) {
	rec := &recorder{}
	s := NewStatic(espoo, types.NotDetermined, true)
	s.SetDelegate(rec)

	s.RequestPermission()
	assert.Equal(t, types.AuthorizedWhenInUse, s.AuthorizationStatus())
	assert.Equal(t, []types.AuthorizationStatus{types.AuthorizedWhenInUse}, rec.statuses)

	s.RequestPermission()
	assert.Len(t, rec.statuses, 1)
}

func TestStaticWithoutAutoGrant(t *testing.T) {
	rec := &recorder{}
	s := NewStatic(espoo, types.NotDetermined, false)
	s.SetDelegate(rec)

	s.RequestPermission()
	assert.Equal(t, types.NotDetermined, s.AuthorizationStatus())
	assert.Empty(t, rec.statuses)
}

func TestStaticDeliversFix(t *testing.T) {
	rec := &recorder{}
	s := NewStatic(espoo, types.AuthorizedWhenInUse, false)
	s.SetDelegate(rec)

	s.RequestOneShotLocation()
	require.Len(t, rec.updates, 1)
	assert.Equal(t, []types.Coordinate{espoo}, rec.updates[0])
	assert.True(t, s.ServiceEnabled())
}

func TestRemoteRecordsRequests(t *testing.T) {
	r := NewRemote()
	assert.Equal(t, Pending{}, r.Pending())

	r.RequestPermission()
	r.RequestOneShotLocation()
	assert.Equal(t, Pending{Permission: true, Location: true}, r.Pending())
}

func TestRemoteReports(t *testing.T) {
	rec := &recorder{}
	r := NewRemote()
	r.SetDelegate(rec)
	r.RequestPermission()
	r.RequestOneShotLocation()

	r.ReportAuthorization(types.AuthorizedWhenInUse)
	r.ReportAuthorization(types.AuthorizedWhenInUse)
	assert.Equal(t, []types.AuthorizationStatus{types.AuthorizedWhenInUse}, rec.statuses)
	assert.False(t, r.Pending().Permission)

	require.NoError(t, r.ReportLocation([]types.Coordinate{espoo}))
	assert.False(t, r.Pending().Location)
	assert.Len(t, rec.updates, 1)

	assert.ErrorIs(t, r.ReportLocation(nil), ErrNoCoordinates)

	r.RequestOneShotLocation()
	r.ReportFailure("timed out")
	assert.Equal(t, []string{"timed out"}, rec.failures)
	assert.False(t, r.Pending().Location)

	r.ReportServiceEnabled(false)
	assert.False(t, r.ServiceEnabled())
}

func TestRemoteNoPermissionPromptOnceDecided(t *testing.T) {
	r := NewRemote()
	r.ReportAuthorization(types.Denied)
	r.RequestPermission()
	assert.False(t, r.Pending().Permission)
}
