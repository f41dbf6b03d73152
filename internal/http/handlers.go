package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/adapters/crdb"
	mongoadapter "github.com/Destroyerg0d/studyhub-reservations/internal/adapters/mongo"
	"github.com/Destroyerg0d/studyhub-reservations/internal/booking"
	"github.com/Destroyerg0d/studyhub-reservations/internal/config"
	"github.com/Destroyerg0d/studyhub-reservations/internal/domain"
	"github.com/Destroyerg0d/studyhub-reservations/internal/idempotency"
	"github.com/Destroyerg0d/studyhub-reservations/internal/status"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type Handlers struct {
	cfg        *config.Config
	svc        *booking.Service
	aggregator *status.Aggregator
	repo       *crdb.Repository
	audit      *mongoadapter.AuditLogger
	idemp      *idempotency.Idempotency
}

func NewHandlers(cfg *config.Config, svc *booking.Service, aggregator *status.Aggregator, repo *crdb.Repository, audit *mongoadapter.AuditLogger, idemp *idempotency.Idempotency) *Handlers {
	return &Handlers{
		cfg:        cfg,
		svc:        svc,
		aggregator: aggregator,
		repo:       repo,
		audit:      audit,
		idemp:      idemp,
	}
}

type bookingResponse struct {
	ID             uuid.UUID            `json:"id"`
	SeatNumber     int                  `json:"seat_number"`
	TimeBand       domain.TimeBand      `json:"time_band"`
	SubscriptionID uuid.UUID            `json:"subscription_id"`
	StartDate      string               `json:"start_date"`
	EndDate        string               `json:"end_date"`
	Status         domain.BookingStatus `json:"status"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		SeatNumber:     b.SeatNumber,
		TimeBand:       b.Band,
		SubscriptionID: b.SubscriptionID,
		StartDate:      b.StartDate.Format(dateLayout),
		EndDate:        b.EndDate.Format(dateLayout),
		Status:         b.Status,
	}
}

// ListSeats returns the full seat catalog with per-viewer display status.
// ?all_bands=true widens the free-band listing to every band.
func (h *Handlers) ListSeats(w http.ResponseWriter, r *http.Request) {
	viewer, ok := ViewerFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	allBands := r.URL.Query().Get("all_bands") == "true"

	views, err := h.aggregator.Overview(r.Context(), viewer, allBands)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"seats": views})
}

// SeatAvailability reports which bands are still free on one seat for
// the viewer's subscription window.
func (h *Handlers) SeatAvailability(w http.ResponseWriter, r *http.Request) {
	viewer, ok := ViewerFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	seat, err := strconv.Atoi(chi.URLParam(r, "seat"))
	if err != nil {
		http.Error(w, "invalid seat number", http.StatusBadRequest)
		return
	}
	allBands := r.URL.Query().Get("all_bands") == "true"

	free, err := h.svc.SeatAvailability(r.Context(), viewer, seat, allBands)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seat_number": seat,
		"free_bands":  free,
	})
}

// CreateBooking runs the confirmation protocol for the viewer.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	viewer, ok := ViewerFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	var req struct {
		SeatNumber int             `json:"seat_number"`
		TimeBand   domain.TimeBand `json:"time_band"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Book(r.Context(), viewer, req.SeatNumber, req.TimeBand)
	if err != nil {
		h.writeError(w, err)
		return
	}

	data, _ := json.Marshal(toBookingResponse(*b))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
}

// CancelBooking flips the viewer's active booking to cancelled.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	viewer, ok := ViewerFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	b, err := h.svc.Cancel(r.Context(), id, viewer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*b))
}

// ListBookings returns the viewer's booking history, newest first.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	viewer, ok := ViewerFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	bookings, err := h.svc.Bookings(r.Context(), viewer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = toBookingResponse(b)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": out})
}

// ListPlans returns the plan catalog with each plan's compatible bands.
func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repo.ListPlans(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	type planResponse struct {
		ID              uuid.UUID         `json:"id"`
		Type            domain.PlanType   `json:"type"`
		Name            string            `json:"name"`
		PriceCents      int64             `json:"price_cents"`
		DurationMonths  int               `json:"duration_months"`
		CompatibleBands []domain.TimeBand `json:"compatible_bands"`
	}
	out := make([]planResponse, len(plans))
	for i, p := range plans {
		out[i] = planResponse{
			ID:              p.ID,
			Type:            p.Type,
			Name:            p.Name,
			PriceCents:      p.PriceCents,
			DurationMonths:  p.DurationMonths,
			CompatibleBands: domain.CompatibleBands(p.Type),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": out})
}

// PaymentCallback is invoked by the payment collaborator after a
// successful charge; it activates the purchased subscription, superseding
// any prior active one. Payment processing itself is not owned here.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    uuid.UUID       `json:"user_id"`
		PlanID    uuid.UUID       `json:"plan_id"`
		PlanType  domain.PlanType `json:"plan_type"`
		Status    string          `json:"status"`
		StartDate string          `json:"start_date"`
		EndDate   string          `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Status != "SUCCEEDED" {
		w.WriteHeader(http.StatusOK)
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil || end.Before(start) {
		http.Error(w, "invalid end_date", http.StatusBadRequest)
		return
	}

	sub := domain.Subscription{
		ID:        uuid.New(),
		UserID:    req.UserID,
		PlanID:    req.PlanID,
		PlanType:  req.PlanType,
		Status:    domain.SubscriptionActive,
		StartDate: start,
		EndDate:   end,
	}
	if err := h.repo.ActivateSubscription(r.Context(), sub); err != nil {
		h.writeError(w, err)
		return
	}
	if h.audit != nil {
		h.audit.SubscriptionActivated(r.Context(), sub)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subscription_id": sub.ID})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

// writeError maps the domain taxonomy to HTTP statuses. Domain rejections
// are final; only StoreUnavailable invites a retry.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoActivePlan):
		http.Error(w, "no active plan, purchase a plan first", http.StatusPaymentRequired)
	case errors.Is(err, domain.ErrPlanIncompatible):
		http.Error(w, "plan does not permit this time band", http.StatusForbidden)
	case errors.Is(err, domain.ErrAlreadyHasBandSlot):
		http.Error(w, "subscription already backs a booking in this band", http.StatusConflict)
	case errors.Is(err, domain.ErrSeatAlreadyMine):
		http.Error(w, "seat already held by you", http.StatusConflict)
	case errors.Is(err, domain.ErrSeatConflict):
		http.Error(w, "seat not available for this band and date range", http.StatusConflict)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, domain.ErrStoreUnavailable):
		http.Error(w, "store unavailable, retry later", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
