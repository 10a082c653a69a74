package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/quickride/internal/middleware"
	"github.com/hitoshi/quickride/internal/model"
	"github.com/hitoshi/quickride/internal/ride"
)

// RideServiceInterface は配車リクエストハンドラーが必要とするサービスインターフェース。
type RideServiceInterface interface {
	Create(ctx context.Context, in ride.CreateInput) (*model.Ride, error)
	Get(ctx context.Context, id string) (*model.Ride, error)
}

// RideHandler は配車リクエストのHTTPハンドラー。
type RideHandler struct {
	service RideServiceInterface
}

// NewRideHandler はRideHandlerを生成する。
func NewRideHandler(service RideServiceInterface) *RideHandler {
	return &RideHandler{service: service}
}

type createRideRequest struct {
	Destination string   `json:"destination"`
	Distance    *float64 `json:"distance"`
	UserEmail   string   `json:"userEmail"`
}

type createRideResponse struct {
	Message string      `json:"message"`
	Ride    *model.Ride `json:"ride"`
}

// CreateRide は配車リクエストを保存する。
// destinationは検証しない。userEmailが省略された場合はトークンのメールアドレスを使う。
// POST /api/rides
func (h *RideHandler) CreateRide(w http.ResponseWriter, r *http.Request) {
	var req createRideRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidBodyError())
		return
	}

	email := req.UserEmail
	if email == "" {
		email, _ = middleware.EmailFromContext(r.Context())
	}

	created, err := h.service.Create(r.Context(), ride.CreateInput{
		Destination: req.Destination,
		Distance:    req.Distance,
		UserEmail:   email,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createRideResponse{
		Message: "Ride saved to database!",
		Ride:    created,
	})
}

// GetRide は保存済みの配車リクエストを取得する。
// GET /api/rides/{id}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if found == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRideNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, found)
}
