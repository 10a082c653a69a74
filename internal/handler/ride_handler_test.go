package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/quickride/internal/middleware"
	"github.com/hitoshi/quickride/internal/model"
	"github.com/hitoshi/quickride/internal/ride"
)

// --- モック定義 ---

// mockRideService はRideServiceInterfaceのモック実装。
type mockRideService struct {
	createFn func(ctx context.Context, in ride.CreateInput) (*model.Ride, error)
	getFn    func(ctx context.Context, id string) (*model.Ride, error)
}

func (m *mockRideService) Create(ctx context.Context, in ride.CreateInput) (*model.Ride, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Ride{
		ID:          "ride-1",
		Destination: in.Destination,
		Distance:    in.Distance,
		UserEmail:   in.UserEmail,
		Status:      model.RideStatusPending,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *mockRideService) Get(ctx context.Context, id string) (*model.Ride, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

type rideResponse struct {
	Message string `json:"message"`
	Ride    struct {
		ID          string   `json:"id"`
		Destination string   `json:"destination"`
		Distance    *float64 `json:"distance"`
		UserEmail   *string  `json:"userEmail"`
		Status      string   `json:"status"`
		CreatedAt   string   `json:"createdAt"`
	} `json:"ride"`
}

func decodeRideResponse(t *testing.T, w *httptest.ResponseRecorder) rideResponse {
	t.Helper()
	var result rideResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

// --- POST /api/rides テスト ---

func TestRideHandler_CreateRide_Success(t *testing.T) {
	h := NewRideHandler(&mockRideService{})

	req := newJSONRequest(http.MethodPost, "/api/rides", `{"destination":"Airport","userEmail":"a@x.io"}`)
	w := httptest.NewRecorder()

	h.CreateRide(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	result := decodeRideResponse(t, w)
	if result.Message != "Ride saved to database!" {
		t.Errorf("message = %q, want %q", result.Message, "Ride saved to database!")
	}
	if result.Ride.ID == "" {
		t.Error("expected ride id")
	}
	if result.Ride.Destination != "Airport" {
		t.Errorf("destination = %q, want %q", result.Ride.Destination, "Airport")
	}
	if result.Ride.UserEmail == nil || *result.Ride.UserEmail != "a@x.io" {
		t.Errorf("userEmail = %v, want %q", result.Ride.UserEmail, "a@x.io")
	}
	if result.Ride.Status != "Pending" {
		t.Errorf("status = %q, want %q", result.Ride.Status, "Pending")
	}
	if result.Ride.CreatedAt == "" {
		t.Error("expected createdAt")
	}
}

// TestRideHandler_CreateRide_EmptyBody は空ボディでも空の行き先で保存されることを検証する。
func TestRideHandler_CreateRide_EmptyBody(t *testing.T) {
	var captured ride.CreateInput
	svc := &mockRideService{
		createFn: func(ctx context.Context, in ride.CreateInput) (*model.Ride, error) {
			captured = in
			return &model.Ride{ID: "ride-2", Status: model.RideStatusPending, CreatedAt: time.Now()}, nil
		},
	}
	h := NewRideHandler(svc)

	req := newJSONRequest(http.MethodPost, "/api/rides", `{}`)
	w := httptest.NewRecorder()

	h.CreateRide(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if captured.Destination != "" || captured.UserEmail != "" || captured.Distance != nil {
		t.Errorf("input = %+v, want empty", captured)
	}

	result := decodeRideResponse(t, w)
	if result.Ride.Destination != "" {
		t.Errorf("destination = %q, want empty", result.Ride.Destination)
	}
	// userEmailとdistanceは未指定の場合レスポンスに含めない
	if result.Ride.UserEmail != nil {
		t.Errorf("userEmail should be omitted, got %q", *result.Ride.UserEmail)
	}
	if result.Ride.Distance != nil {
		t.Errorf("distance should be omitted, got %v", *result.Ride.Distance)
	}
}

// TestRideHandler_CreateRide_WithDistance はdistanceがサービスに渡りレスポンスに含まれることを検証する。
func TestRideHandler_CreateRide_WithDistance(t *testing.T) {
	var captured ride.CreateInput
	svc := &mockRideService{
		createFn: func(ctx context.Context, in ride.CreateInput) (*model.Ride, error) {
			captured = in
			return &model.Ride{ID: "ride-5", Distance: in.Distance, Status: model.RideStatusPending, CreatedAt: time.Now()}, nil
		},
	}
	h := NewRideHandler(svc)

	req := newJSONRequest(http.MethodPost, "/api/rides", `{"destination":"Airport","distance":12.5}`)
	w := httptest.NewRecorder()

	h.CreateRide(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if captured.Distance == nil || *captured.Distance != 12.5 {
		t.Errorf("input distance = %v, want 12.5", captured.Distance)
	}

	result := decodeRideResponse(t, w)
	if result.Ride.Distance == nil || *result.Ride.Distance != 12.5 {
		t.Errorf("distance = %v, want 12.5", result.Ride.Distance)
	}
}

// TestRideHandler_CreateRide_EmailFromToken はボディにuserEmailがない場合にトークンのメールアドレスを使うことを検証する。
func TestRideHandler_CreateRide_EmailFromToken(t *testing.T) {
	var captured ride.CreateInput
	svc := &mockRideService{
		createFn: func(ctx context.Context, in ride.CreateInput) (*model.Ride, error) {
			captured = in
			return &model.Ride{ID: "ride-3", UserEmail: in.UserEmail, Status: model.RideStatusPending}, nil
		},
	}
	h := NewRideHandler(svc)

	req := newJSONRequest(http.MethodPost, "/api/rides", `{"destination":"Downtown"}`)
	req = req.WithContext(middleware.ContextWithEmail(req.Context(), "token@example.com"))
	w := httptest.NewRecorder()

	h.CreateRide(w, req)

	if captured.UserEmail != "token@example.com" {
		t.Errorf("userEmail = %q, want %q", captured.UserEmail, "token@example.com")
	}
}

// TestRideHandler_CreateRide_BodyEmailWins はボディのuserEmailがトークンより優先されることを検証する。
func TestRideHandler_CreateRide_BodyEmailWins(t *testing.T) {
	var captured ride.CreateInput
	svc := &mockRideService{
		createFn: func(ctx context.Context, in ride.CreateInput) (*model.Ride, error) {
			captured = in
			return &model.Ride{ID: "ride-4", UserEmail: in.UserEmail, Status: model.RideStatusPending}, nil
		},
	}
	h := NewRideHandler(svc)

	req := newJSONRequest(http.MethodPost, "/api/rides", `{"destination":"Downtown","userEmail":"body@example.com"}`)
	req = req.WithContext(middleware.ContextWithEmail(req.Context(), "token@example.com"))
	w := httptest.NewRecorder()

	h.CreateRide(w, req)

	if captured.UserEmail != "body@example.com" {
		t.Errorf("userEmail = %q, want %q", captured.UserEmail, "body@example.com")
	}
}

func TestRideHandler_CreateRide_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	called := false
	svc := &mockRideService{
		createFn: func(ctx context.Context, in ride.CreateInput) (*model.Ride, error) {
			called = true
			return nil, nil
		},
	}
	h := NewRideHandler(svc)

	req := newJSONRequest(http.MethodPost, "/api/rides", `{"destination":`)
	w := httptest.NewRecorder()

	h.CreateRide(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if called {
		t.Error("service should not be called for malformed JSON")
	}
}

// TestRideHandler_CreateRide_TrailingData_ReturnsBadRequest はJSON値の後に余分なデータがある場合に400を返すことを検証する。
func TestRideHandler_CreateRide_TrailingData_ReturnsBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"garbage after object", `{"destination":"Airport"}garbage`},
		{"second object", `{"destination":"Airport"}{"destination":"Station"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockRideService{
				createFn: func(ctx context.Context, in ride.CreateInput) (*model.Ride, error) {
					called = true
					return nil, nil
				},
			}
			h := NewRideHandler(svc)

			w := httptest.NewRecorder()
			h.CreateRide(w, newJSONRequest(http.MethodPost, "/api/rides", tt.body))

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if called {
				t.Error("service should not be called for trailing data")
			}
			errResp := parseAPIErrorResponse(t, w)
			if errResp["code"] != model.ErrCodeInvalidBody {
				t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeInvalidBody)
			}
		})
	}
}

// TestRideHandler_CreateRide_TrailingWhitespace_Accepted はJSON値の後の空白を許容することを検証する。
func TestRideHandler_CreateRide_TrailingWhitespace_Accepted(t *testing.T) {
	h := NewRideHandler(&mockRideService{})

	w := httptest.NewRecorder()
	h.CreateRide(w, newJSONRequest(http.MethodPost, "/api/rides", "{\"destination\":\"Airport\"}\n  "))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestRideHandler_CreateRide_StorageFailure_Returns500(t *testing.T) {
	svc := &mockRideService{
		createFn: func(ctx context.Context, in ride.CreateInput) (*model.Ride, error) {
			return nil, errors.New("failed to save ride: pq: relation \"rides\" does not exist")
		},
	}
	h := NewRideHandler(svc)

	req := newJSONRequest(http.MethodPost, "/api/rides", `{"destination":"Airport"}`)
	w := httptest.NewRecorder()

	h.CreateRide(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeInternal)
	}
}

// --- GET /api/rides/{id} テスト ---

func TestRideHandler_GetRide_Success(t *testing.T) {
	svc := &mockRideService{
		getFn: func(ctx context.Context, id string) (*model.Ride, error) {
			if id != "ride-1" {
				t.Errorf("id = %q, want %q", id, "ride-1")
			}
			return &model.Ride{ID: "ride-1", Destination: "Airport", Status: model.RideStatusPending}, nil
		},
	}
	h := NewRideHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/rides/ride-1", nil)
	req = withChiURLParam(req, "id", "ride-1")
	w := httptest.NewRecorder()

	h.GetRide(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["destination"] != "Airport" {
		t.Errorf("destination = %v, want %q", result["destination"], "Airport")
	}
}

func TestRideHandler_GetRide_NotFound(t *testing.T) {
	h := NewRideHandler(&mockRideService{})

	req := httptest.NewRequest(http.MethodGet, "/api/rides/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.GetRide(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeNotFound {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeNotFound)
	}
}
