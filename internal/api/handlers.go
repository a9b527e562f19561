package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"verkstad/internal/database"
	"verkstad/internal/models"
	"verkstad/internal/ranking"
	"verkstad/internal/service"

	"github.com/shopspring/decimal"
)

func pathParam(path, prefix string) string {
	param := strings.TrimPrefix(path, prefix)
	param = strings.TrimSpace(param)
	if param == "" || strings.Contains(param, "/") {
		return ""
	}
	return param
}

func (s *HTTPServer) handleListOffers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	requestID := pathParam(r.URL.Path, "/api/v1/offers/request/")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "request id is required")
		return
	}

	q := r.URL.Query()
	sortBy, err := ranking.ParseSortBy(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters, err := ranking.ParseFilters(q.Get("filter_price"), q.Get("filter_distance"), q.Get("filter_rating"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := s.offers.ListOffers(r.Context(), requestID, sortBy, filters)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"offers": listing})
}

func (s *HTTPServer) handleOffer(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/offers/")

	// POST /api/v1/offers/{id}/decline
	if id, ok := strings.CutSuffix(path, "/decline"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusBadRequest, "offer id is required")
			return
		}
		if err := s.offers.DeclineOffer(r.Context(), id); err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": models.OfferStatusDeclined})
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := pathParam(r.URL.Path, "/api/v1/offers/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "offer id is required")
		return
	}

	offer, err := s.offers.GetOffer(r.Context(), id)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

func (s *HTTPServer) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type request struct {
		models.Offer
		UserID string `json:"user_id"`
	}

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The bidder may be identified by its workshop or by the owning user.
	offer := body.Offer
	if offer.WorkshopID == "" && body.UserID != "" {
		workshopID, err := s.offers.ResolveWorkshopForUser(r.Context(), body.UserID)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		offer.WorkshopID = workshopID
	}
	if offer.RequestID == "" || offer.WorkshopID == "" {
		writeError(w, http.StatusBadRequest, "request_id and workshop_id are required")
		return
	}

	created, err := s.offers.CreateOffer(r.Context(), &offer)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleAvailableRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	workshopID := strings.TrimSpace(q.Get("workshop_id"))
	if workshopID == "" {
		writeError(w, http.StatusBadRequest, "workshop_id is required")
		return
	}

	var origin *models.Coordinate
	latStr, lngStr := q.Get("latitude"), q.Get("longitude")
	if latStr != "" || lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid latitude")
			return
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid longitude")
			return
		}
		origin = &models.Coordinate{Latitude: lat, Longitude: lng}
	}

	radiusKm := 0.0
	if raw := q.Get("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radiusKm = parsed
	}

	available, err := s.requests.GetAvailableRequests(r.Context(), workshopID, origin, radiusKm)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": available})
}

func (s *HTTPServer) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := s.requests.CreateRequest(r.Context(), &req)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleCustomerRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	customerID := pathParam(r.URL.Path, "/api/v1/requests/customer/")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "customer id is required")
		return
	}

	requests, err := s.requests.GetCustomerRequests(r.Context(), customerID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type request struct {
		OfferID     string          `json:"offer_id"`
		CustomerID  string          `json:"customer_id"`
		ScheduledAt time.Time       `json:"scheduled_at"`
		Notes       string          `json:"notes"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.OfferID == "" || body.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "offer_id and customer_id are required")
		return
	}

	booking, err := s.bookings.AcceptOffer(r.Context(), service.AcceptOfferInput{
		OfferID:     body.OfferID,
		CustomerID:  body.CustomerID,
		ScheduledAt: body.ScheduledAt,
		Notes:       body.Notes,
		TotalAmount: body.TotalAmount,
	})
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleBooking(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/bookings/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		booking, err := s.bookings.GetBooking(r.Context(), id)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case http.MethodPatch:
		type request struct {
			Status      string     `json:"status"`
			ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
			Notes       *string    `json:"notes,omitempty"`
		}

		var body request
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.Status == "" {
			writeError(w, http.StatusBadRequest, "status is required")
			return
		}

		booking, err := s.bookings.UpdateBooking(r.Context(), id, body.Status, body.ScheduledAt, body.Notes)
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCustomerBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	customerID := pathParam(r.URL.Path, "/api/v1/bookings/customer/")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "customer id is required")
		return
	}

	bookings, err := s.bookings.GetCustomerBookings(r.Context(), customerID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGeneratePayouts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	month, year, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	reports, err := s.payouts.GeneratePayouts(r.Context(), month, year)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *HTTPServer) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter, ok := parsePayoutFilter(w, r)
	if !ok {
		return
	}

	reports, err := s.payouts.ListPayouts(r.Context(), filter)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *HTTPServer) handleMarkPayoutPaid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/payouts/")
	id, ok := strings.CutSuffix(path, "/paid")
	if !ok || id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.payouts.MarkPaid(r.Context(), id); err != nil {
		writeBusinessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func (s *HTTPServer) handleExportPayouts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter, ok := parsePayoutFilter(w, r)
	if !ok {
		return
	}

	filePath, err := s.payouts.ExportPayoutsToExcel(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"file_path": filePath})
}

func parsePeriod(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	q := r.URL.Query()
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month")
		return 0, 0, false
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return 0, 0, false
	}
	return month, year, true
}

func parsePayoutFilter(w http.ResponseWriter, r *http.Request) (database.PayoutFilter, bool) {
	q := r.URL.Query()
	filter := database.PayoutFilter{
		WorkshopID: strings.TrimSpace(q.Get("workshop_id")),
	}

	if raw := q.Get("month"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month")
			return filter, false
		}
		filter.Month = month
	}
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return filter, false
		}
		filter.Year = year
	}
	if raw := q.Get("is_paid"); raw != "" {
		isPaid, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid is_paid")
			return filter, false
		}
		filter.IsPaid = &isPaid
	}

	return filter, true
}
