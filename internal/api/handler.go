// Package api exposes the subscription core as a REST surface with a
// Server-Sent-Events stream and an optional storefront webhook endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/snapdiary/pkg/plan"
	"github.com/dmitrymomot/snapdiary/pkg/subscription"
)

// WebhookParser verifies and normalizes a storefront webhook payload.
// Implemented by subscription.PaddleStorefront.
type WebhookParser interface {
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*subscription.StorefrontEvent, error)
}

// Handler exposes the subscription core over HTTP.
type Handler struct {
	plans   *plan.Registry
	svc     *subscription.Service
	store   *subscription.Store
	tracker *subscription.UsageTracker
	gate    *subscription.Entitlements
	events  *subscription.Events
	hooks   WebhookParser
	log     *slog.Logger
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithWebhookParser enables the storefront webhook endpoint.
func WithWebhookParser(p WebhookParser) HandlerOption {
	return func(h *Handler) { h.hooks = p }
}

// WithHandlerLogger sets the handler logger; nil loggers are ignored.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates the HTTP handler. Panics on nil dependencies.
func NewHandler(
	plans *plan.Registry,
	svc *subscription.Service,
	store *subscription.Store,
	tracker *subscription.UsageTracker,
	gate *subscription.Entitlements,
	events *subscription.Events,
	opts ...HandlerOption,
) *Handler {
	if plans == nil || svc == nil || store == nil || tracker == nil || gate == nil || events == nil {
		panic("api: all handler dependencies are required")
	}

	h := &Handler{
		plans:   plans,
		svc:     svc,
		store:   store,
		tracker: tracker,
		gate:    gate,
		events:  events,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router assembles the chi route tree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Get("/plans", h.handlePlans)
		r.Get("/products", h.handleProducts)
		r.Get("/usage", h.handleUsage)
		r.Get("/entitlements", h.handleEntitlements)
		r.Get("/history", h.handleHistory)
		r.Get("/events", h.handleEvents)

		r.Post("/purchase", h.handlePurchase)
		r.Post("/restore", h.handleRestore)
		r.Post("/cancel", h.handleCancel)
		r.Post("/change-plan", h.handleChangePlan)
		r.Post("/refresh", h.handleRefresh)
	})

	if h.hooks != nil {
		r.Post("/webhooks/storefront", h.handleWebhook)
	}

	return r
}

type purchaseRequest struct {
	PlanID plan.ID `json:"plan_id"`
}

type statusResponse struct {
	Status       subscription.Status `json:"status"`
	Valid        bool                `json:"valid"`
	StorageError string              `json:"storage_error,omitempty"`
}

type usageResponse struct {
	Used        int       `json:"used"`
	Remaining   int       `json:"remaining"`
	CanGenerate bool      `json:"can_generate"`
	NextResetAt time.Time `json:"next_reset_at"`
}

type entitlementsResponse struct {
	AIGeneration      bool `json:"ai_generation"`
	PremiumFeatures   bool `json:"premium_features"`
	WritingPrompts    bool `json:"writing_prompts"`
	AdvancedFilters   bool `json:"advanced_filters"`
	AdvancedAnalytics bool `json:"advanced_analytics"`
	PrioritySupport   bool `json:"priority_support"`
	DataExport        bool `json:"data_export"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.Current(r.Context())
	resp := statusResponse{Status: status, Valid: status.IsValid()}
	if err != nil {
		// ErrStorageUnavailable still yields a usable last-known status;
		// surface the degradation without failing the request.
		if !errors.Is(err, subscription.ErrStorageUnavailable) {
			respondWithError(w, http.StatusInternalServerError, "failed to load subscription status")
			return
		}
		resp.StorageError = subscription.ErrStorageUnavailable.Error()
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePlans(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.plans.Available())
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to fetch products", "error", err)
		respondWithError(w, http.StatusBadGateway, "storefront unavailable")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respondWithJSON(w, http.StatusOK, usageResponse{
		Used:        h.tracker.MonthlyUsage(ctx),
		Remaining:   h.tracker.RemainingGenerations(ctx),
		CanGenerate: h.tracker.CanUseAIGeneration(ctx),
		NextResetAt: h.tracker.NextResetAt(ctx),
	})
}

func (h *Handler) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respondWithJSON(w, http.StatusOK, entitlementsResponse{
		AIGeneration:      h.gate.CanUseAIGeneration(ctx),
		PremiumFeatures:   h.gate.CanAccessPremiumFeatures(ctx),
		WritingPrompts:    h.gate.CanAccessWritingPrompts(ctx),
		AdvancedFilters:   h.gate.CanAccessAdvancedFilters(ctx),
		AdvancedAnalytics: h.gate.CanAccessAdvancedAnalytics(ctx),
		PrioritySupport:   h.gate.CanAccessPrioritySupport(ctx),
		DataExport:        h.gate.CanExportData(ctx),
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.svc.History())
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Purchase(r.Context(), req.PlanID)
	if err != nil {
		h.respondPurchaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) handleChangePlan(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.ChangePlan(r.Context(), req.PlanID)
	if err != nil {
		h.respondPurchaseError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) respondPurchaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, plan.ErrPlanNotFound):
		respondWithError(w, http.StatusNotFound, "unknown plan")
	case errors.Is(err, subscription.ErrPlanNotPurchasable):
		respondWithError(w, http.StatusBadRequest, "plan cannot be purchased")
	case errors.Is(err, subscription.ErrPurchaseInProgress):
		respondWithError(w, http.StatusConflict, "a purchase is already in progress")
	default:
		h.log.ErrorContext(r.Context(), "purchase failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "purchase failed")
	}
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	restored, err := h.svc.Restore(r.Context())
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, restored)
	case errors.Is(err, subscription.ErrRestoreUnsupported):
		respondWithError(w, http.StatusNotImplemented, "restore is not supported by this storefront")
	default:
		h.log.ErrorContext(r.Context(), "restore failed", "error", err)
		respondWithError(w, http.StatusBadGateway, "restore failed")
	}
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cancel(r.Context()); err != nil && !errors.Is(err, subscription.ErrStorageUnavailable) {
		h.log.ErrorContext(r.Context(), "cancel failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "cancel failed")
		return
	}

	status, _ := h.store.Current(r.Context())
	respondWithJSON(w, http.StatusOK, statusResponse{Status: status, Valid: status.IsValid()})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RefreshEntitlements(r.Context()); err != nil && !errors.Is(err, subscription.ErrStorageUnavailable) {
		h.log.ErrorContext(r.Context(), "entitlement refresh failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	status, _ := h.store.Current(r.Context())
	respondWithJSON(w, http.StatusOK, statusResponse{Status: status, Valid: status.IsValid()})
}
