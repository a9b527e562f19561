package matching

import (
	"time"

	"verkstad/internal/geo"
	"verkstad/internal/models"
)

// Matcher decides which workshops may see and bid on which requests. All
// methods are pure filters over snapshots supplied by the caller; the matcher
// never touches storage.
type Matcher struct {
	defaultRadiusKm float64
}

func NewMatcher(defaultRadiusKm float64) *Matcher {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = models.DefaultRadiusKm
	}
	return &Matcher{defaultRadiusKm: defaultRadiusKm}
}

func (m *Matcher) DefaultRadiusKm() float64 {
	return m.defaultRadiusKm
}

// IsEffectivelyOpen reports whether a request still accepts offers at the
// given instant. Status transitions may lag behind the clock, so the expiry
// check is applied independently of the stored status field.
func IsEffectivelyOpen(req *models.Request, now time.Time) bool {
	return req.Status == models.RequestStatusInBidding && now.Before(req.ExpiresAt)
}

// EligibleWorkshop reports whether a workshop may participate in matching at
// all. Enforced at this boundary rather than stored on the match.
func EligibleWorkshop(w *models.Workshop) bool {
	return w.IsVerified && w.IsActive
}

func (m *Matcher) radius(radiusKm float64) float64 {
	if radiusKm <= 0 {
		return m.defaultRadiusKm
	}
	return radiusKm
}

// FindEligibleWorkshops returns the workshops allowed to bid on the request:
// verified, active and within radiusKm of the request location (inclusive
// boundary). Returns nil when the request is no longer effectively open.
func (m *Matcher) FindEligibleWorkshops(req *models.Request, workshops []models.Workshop, radiusKm float64, now time.Time) []models.Workshop {
	if !IsEffectivelyOpen(req, now) {
		return nil
	}
	r := m.radius(radiusKm)

	out := make([]models.Workshop, 0, len(workshops))
	for _, w := range workshops {
		if !EligibleWorkshop(&w) {
			continue
		}
		if geo.DistanceKm(req.Location, w.Location) > r {
			continue
		}
		out = append(out, w)
	}
	return out
}

// MatchedRequest pairs an open request with its distance from a workshop.
type MatchedRequest struct {
	Request    models.Request
	DistanceKm float64
}

// FindEligibleRequests is the workshop-centric mirror of
// FindEligibleWorkshops: the open requests this workshop may bid on, with
// distances. The same predicate set applies in both directions. The origin
// overrides the workshop's stored location when the caller supplies one
// (mobile clients report their current position).
func (m *Matcher) FindEligibleRequests(w *models.Workshop, origin models.Coordinate, openRequests []models.Request, radiusKm float64, now time.Time) []MatchedRequest {
	if !EligibleWorkshop(w) {
		return nil
	}
	r := m.radius(radiusKm)

	out := make([]MatchedRequest, 0, len(openRequests))
	for _, req := range openRequests {
		if !IsEffectivelyOpen(&req, now) {
			continue
		}
		d := geo.DistanceKm(req.Location, origin)
		if d > r {
			continue
		}
		out = append(out, MatchedRequest{Request: req, DistanceKm: d})
	}
	return out
}
