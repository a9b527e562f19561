package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"verkstad/internal/bidding"
	"verkstad/internal/config"
	"verkstad/internal/metrics"
	"verkstad/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the marketplace API: offer listings and submission for
// workshops, request and booking management for the customer gateway, and an
// authenticated admin surface for payouts.
type HTTPServer struct {
	cfg      config.APIConfig
	offers   *service.OfferService
	requests *service.RequestService
	bookings *service.BookingService
	payouts  *service.PayoutService
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, offers *service.OfferService, requests *service.RequestService, bookings *service.BookingService, payouts *service.PayoutService, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:      cfg,
		offers:   offers,
		requests: requests,
		bookings: bookings,
		payouts:  payouts,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/offers/request/", srv.handleListOffers)
	mux.HandleFunc("/api/v1/offers/", srv.handleOffer)
	mux.HandleFunc("/api/v1/offers", srv.handleCreateOffer)
	mux.HandleFunc("/api/v1/requests/available", srv.handleAvailableRequests)
	mux.HandleFunc("/api/v1/requests/customer/", srv.handleCustomerRequests)
	mux.HandleFunc("/api/v1/requests", srv.handleCreateRequest)
	mux.HandleFunc("/api/v1/bookings/customer/", srv.handleCustomerBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBooking)
	mux.HandleFunc("/api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("/api/v1/admin/payouts/generate", srv.handleGeneratePayouts)
	mux.HandleFunc("/api/v1/admin/payouts/export", srv.handleExportPayouts)
	mux.HandleFunc("/api/v1/admin/payouts/", srv.handleMarkPayoutPaid)
	mux.HandleFunc("/api/v1/admin/payouts", srv.handleListPayouts)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler возвращает корневой обработчик, используется в тестах
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("dur", dur).
			Msg("http request")
	})
}

// writeBusinessError переводит бизнес-ошибки в HTTP-статусы
func writeBusinessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bidding.ErrRequestNotFound),
		errors.Is(err, bidding.ErrOfferNotFound),
		errors.Is(err, bidding.ErrWorkshopNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bidding.ErrInvalidOfferParameters):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bidding.ErrDuplicateOffer),
		errors.Is(err, bidding.ErrRequestNotAcceptingOffers),
		errors.Is(err, bidding.ErrStaleTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
