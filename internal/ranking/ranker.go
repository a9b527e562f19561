package ranking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"verkstad/internal/geo"
	"verkstad/internal/models"

	"github.com/shopspring/decimal"
)

// SortBy selects the primary sort key. The two remaining keys always break
// ties in a fixed order, so the resulting order is total for any input.
type SortBy string

const (
	SortByPrice    SortBy = "price"
	SortByDistance SortBy = "distance"
	SortByRating   SortBy = "rating"
)

// ParseSortBy maps the query-string value to a SortBy, defaulting to price.
func ParseSortBy(raw string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "price":
		return SortByPrice, nil
	case "distance":
		return SortByDistance, nil
	case "rating":
		return SortByRating, nil
	default:
		return "", fmt.Errorf("unknown sort key: %s", raw)
	}
}

// Filters are optional and independently combinable; all present filters must
// pass (logical AND).
type Filters struct {
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	MaxDistanceKm *float64
	MinRating     *float64
}

// ParsePriceRange parses the "min-max" / "min-" wire format of the price
// filter. An absent max means unbounded above.
func ParsePriceRange(raw string) (*decimal.Decimal, *decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}
	parts := strings.SplitN(raw, "-", 2)
	min, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid price range %q: %w", raw, err)
	}
	if len(parts) == 1 || strings.TrimSpace(parts[1]) == "" {
		return &min, nil, nil
	}
	max, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid price range %q: %w", raw, err)
	}
	return &min, &max, nil
}

// ParseFilters builds Filters from the raw query parameters of the offer
// listing endpoint. Empty strings mean "no filter".
func ParseFilters(filterPrice, filterDistance, filterRating string) (Filters, error) {
	var f Filters

	min, max, err := ParsePriceRange(filterPrice)
	if err != nil {
		return Filters{}, err
	}
	f.PriceMin, f.PriceMax = min, max

	if s := strings.TrimSpace(filterDistance); s != "" {
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Filters{}, fmt.Errorf("invalid distance filter %q: %w", s, err)
		}
		f.MaxDistanceKm = &d
	}
	if s := strings.TrimSpace(filterRating); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Filters{}, fmt.Errorf("invalid rating filter %q: %w", s, err)
		}
		f.MinRating = &r
	}
	return f, nil
}

// Ranker produces the customer-facing view of competing offers: visible
// statuses only, filtered, deterministically ordered and capped.
type Ranker struct {
	maxResults int
}

func NewRanker(maxResults int) *Ranker {
	if maxResults <= 0 {
		maxResults = models.DefaultMaxRankedOffers
	}
	return &Ranker{maxResults: maxResults}
}

// Rank filters and orders the given offers. Truncation happens after sorting
// so that filtering and ordering always see the full eligible set. The input
// slice is not modified.
func (r *Ranker) Rank(offers []models.RankedOffer, sortBy SortBy, f Filters) []models.RankedOffer {
	eligible := make([]models.RankedOffer, 0, len(offers))
	for _, o := range offers {
		if !o.IsActive() {
			continue
		}
		if !f.matches(&o) {
			continue
		}
		eligible = append(eligible, o)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return less(&eligible[i], &eligible[j], sortBy)
	})

	if len(eligible) > r.maxResults {
		eligible = eligible[:r.maxResults]
	}
	return eligible
}

func (f Filters) matches(o *models.RankedOffer) bool {
	if f.PriceMin != nil && o.Price.Cmp(*f.PriceMin) < 0 {
		return false
	}
	if f.PriceMax != nil && o.Price.Cmp(*f.PriceMax) > 0 {
		return false
	}
	if f.MaxDistanceKm != nil && o.DistanceKm > *f.MaxDistanceKm {
		return false
	}
	if f.MinRating != nil && o.Workshop.Rating < *f.MinRating {
		return false
	}
	return true
}

// less is the three-key comparator. The primary key follows sortBy; the two
// secondary keys are fixed per primary so that equal inputs always order the
// same way regardless of arrival order.
func less(a, b *models.RankedOffer, sortBy SortBy) bool {
	switch sortBy {
	case SortByDistance:
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c < 0
		}
		return a.Workshop.Rating > b.Workshop.Rating
	case SortByRating:
		if a.Workshop.Rating != b.Workshop.Rating {
			return a.Workshop.Rating > b.Workshop.Rating
		}
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c < 0
		}
		return a.DistanceKm < b.DistanceKm
	default: // SortByPrice
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c < 0
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.Workshop.Rating > b.Workshop.Rating
	}
}

// AnnotateDistances joins offers with their workshop snapshots and computes
// the distance from the request location. Offers whose workshop is missing
// from the snapshot map are skipped.
func AnnotateDistances(offers []models.Offer, workshops map[string]models.Workshop, requestLocation models.Coordinate) []models.RankedOffer {
	out := make([]models.RankedOffer, 0, len(offers))
	for _, o := range offers {
		w, ok := workshops[o.WorkshopID]
		if !ok {
			continue
		}
		out = append(out, models.RankedOffer{
			Offer:      o,
			Workshop:   w,
			DistanceKm: geo.DistanceKm(requestLocation, w.Location),
		})
	}
	return out
}
