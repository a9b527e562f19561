package matching

import (
	"testing"
	"time"

	"verkstad/internal/geo"
	"verkstad/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func openRequest(id string, loc models.Coordinate) models.Request {
	return models.Request{
		ID:        id,
		Location:  loc,
		Status:    models.RequestStatusInBidding,
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(47 * time.Hour),
	}
}

func workshop(id string, loc models.Coordinate) models.Workshop {
	return models.Workshop{ID: id, Location: loc, IsVerified: true, IsActive: true}
}

func TestIsEffectivelyOpen(t *testing.T) {
	req := openRequest("r1", models.Coordinate{})
	assert.True(t, IsEffectivelyOpen(&req, now))

	// Expired but status not yet transitioned: still closed for matching.
	expired := req
	expired.ExpiresAt = now.Add(-time.Second)
	assert.False(t, IsEffectivelyOpen(&expired, now))

	booked := req
	booked.Status = models.RequestStatusBooked
	assert.False(t, IsEffectivelyOpen(&booked, now))
}

func TestFindEligibleWorkshopsRadiusBoundary(t *testing.T) {
	m := NewMatcher(30)
	reqLoc := models.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
	req := openRequest("r1", reqLoc)

	// Pin the radius to the exact computed distance of one workshop so the
	// boundary case is bit-for-bit equal, then place a second one 10 m past it.
	atBoundary := workshop("at", models.Coordinate{Latitude: reqLoc.Latitude + 0.18, Longitude: reqLoc.Longitude})
	radius := geo.DistanceKm(reqLoc, atBoundary.Location)
	beyond := workshop("beyond", models.Coordinate{Latitude: reqLoc.Latitude + 0.18 + 0.01/111.19, Longitude: reqLoc.Longitude})

	require.Greater(t, geo.DistanceKm(reqLoc, beyond.Location), radius+0.009)

	got := m.FindEligibleWorkshops(&req, []models.Workshop{atBoundary, beyond}, radius, now)
	require.Len(t, got, 1)
	assert.Equal(t, "at", got[0].ID)
}

func TestFindEligibleWorkshopsVerification(t *testing.T) {
	m := NewMatcher(30)
	reqLoc := models.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
	req := openRequest("r1", reqLoc)

	unverified := workshop("unverified", reqLoc)
	unverified.IsVerified = false
	inactive := workshop("inactive", reqLoc)
	inactive.IsActive = false
	ok := workshop("ok", reqLoc)

	got := m.FindEligibleWorkshops(&req, []models.Workshop{unverified, inactive, ok}, 0, now)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
}

func TestFindEligibleWorkshopsClosedRequest(t *testing.T) {
	m := NewMatcher(30)
	loc := models.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
	req := openRequest("r1", loc)
	req.ExpiresAt = now.Add(-time.Minute)

	got := m.FindEligibleWorkshops(&req, []models.Workshop{workshop("w", loc)}, 30, now)
	assert.Empty(t, got)
}

func TestFindEligibleRequests(t *testing.T) {
	m := NewMatcher(30)
	wLoc := models.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
	w := workshop("w1", wLoc)

	near := openRequest("near", models.Coordinate{Latitude: 59.3346, Longitude: 18.0632})
	far := openRequest("far", models.Coordinate{Latitude: 57.7089, Longitude: 11.9746})
	expired := openRequest("expired", wLoc)
	expired.ExpiresAt = now.Add(-time.Minute)

	got := m.FindEligibleRequests(&w, wLoc, []models.Request{near, far, expired}, 0, now)
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].Request.ID)
	assert.Greater(t, got[0].DistanceKm, 0.5)
	assert.Less(t, got[0].DistanceKm, 1.5)
}

func TestFindEligibleRequestsIneligibleWorkshop(t *testing.T) {
	m := NewMatcher(30)
	loc := models.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
	w := workshop("w1", loc)
	w.IsVerified = false

	got := m.FindEligibleRequests(&w, loc, []models.Request{openRequest("r", loc)}, 30, now)
	assert.Empty(t, got)
}

func TestDefaultRadius(t *testing.T) {
	m := NewMatcher(0)
	assert.Equal(t, models.DefaultRadiusKm, m.DefaultRadiusKm())

	// Radius 0 from the caller falls back to the configured default.
	wLoc := models.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
	w := workshop("w1", wLoc)
	justInside := openRequest("inside", models.Coordinate{Latitude: wLoc.Latitude + 29.0/111.194926, Longitude: wLoc.Longitude})
	outside := openRequest("outside", models.Coordinate{Latitude: wLoc.Latitude + 31.0/111.194926, Longitude: wLoc.Longitude})

	got := m.FindEligibleRequests(&w, wLoc, []models.Request{justInside, outside}, 0, now)
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].Request.ID)
}
