package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/bikeshop-agent/internal/agent"
	"github.com/yoockh/bikeshop-agent/internal/api/handlers"
	"github.com/yoockh/bikeshop-agent/internal/api/middleware"
	"github.com/yoockh/bikeshop-agent/internal/crm"
	"github.com/yoockh/bikeshop-agent/internal/intent"
	"github.com/yoockh/bikeshop-agent/internal/logger"
	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/prompts"
	"github.com/yoockh/bikeshop-agent/internal/rag"
	"github.com/yoockh/bikeshop-agent/internal/retrieval"
	"github.com/yoockh/bikeshop-agent/internal/services"
	"github.com/yoockh/bikeshop-agent/internal/session"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	idx := retrieval.NewMemoryIndex(nil)
	_ = idx.IndexProducts(context.Background(), []models.Product{
		{ID: 1, Name: "Trail Hawk", Type: "mountain", Brand: "Ridge", PriceEUR: 1200, FrameMaterial: "aluminum", Gears: 12, Brakes: "hydraulic disc", IntendedUse: []string{"trails"}},
		{ID: 2, Name: "Gravel King", Type: "gravel", Brand: "Alto", PriceEUR: 2100, FrameMaterial: "carbon", Gears: 11, Brakes: "hydraulic disc", IntendedUse: []string{"gravel"}},
	})
	_ = idx.IndexFAQs(context.Background(), []models.FAQEntry{{ID: 1, Question: "What is the warranty?", Answer: "Two years on all parts."}})

	store, err := session.NewStore(session.StoreTypeMemory)
	if err != nil {
		t.Fatal(err)
	}
	orch := agent.New(agent.Deps{
		Store:    store,
		Intents:  intent.NewClassifier(nil, log, 0),
		Products: rag.NewProductRAG(idx, nil, log, rag.Options{}),
		FAQs:     rag.NewFAQRAG(idx, nil, log, rag.Options{}),
		CRM:      crm.Unconfigured{},
		Log:      log,
	})
	conv := services.NewConversationService(store, orch, nil, nil, log)

	return NewRouter(Deps{
		Conversation: handlers.NewConversationHandler(conv),
		Admin:        handlers.NewAdminHandler(conv, nil, log),
		Log:          log,
		CORSOrigins:  []string{"*"},
		AdminJWT:     middleware.JWTConfig{Secret: testSecret, Issuer: "bikeshop"},
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[handlers.HealthResponse](t, w)
	if got.Status != "ok" || got.Version != "1.0.0" {
		t.Errorf("health = %+v", got)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id")
	}
}

func TestConversationEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/conversations", nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	created := decode[handlers.ConversationCreateResponse](t, w)
	if created.SessionID == "" || created.Message != prompts.Greeting {
		t.Fatalf("created = %+v", created)
	}
	base := "/api/v1/conversations/" + created.SessionID

	w = do(t, r, http.MethodPost, base+"/messages", handlers.MessageRequest{Message: "mountain bike for trails under 1500 euro"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("send status = %d: %s", w.Code, w.Body.String())
	}
	msg := decode[handlers.MessageResponse](t, w)
	if len(msg.Products) != 1 || msg.Products[0].Name != "Trail Hawk" || msg.Products[0].KeyFeatures == "" {
		t.Errorf("products = %+v", msg.Products)
	}
	if msg.SessionID != created.SessionID || msg.LeadCreated {
		t.Errorf("message = %+v", msg)
	}

	w = do(t, r, http.MethodGet, base, nil, nil)
	hist := decode[handlers.ConversationHistoryResponse](t, w)
	if w.Code != http.StatusOK || hist.State != "DISCOVERY" || len(hist.Messages) != 2 {
		t.Errorf("history %d = %+v", w.Code, hist)
	}
	if _, err := time.Parse(time.RFC3339Nano, hist.CreatedAt); err != nil {
		t.Errorf("created_at %q: %v", hist.CreatedAt, err)
	}

	if w = do(t, r, http.MethodDelete, base, nil, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	if w = do(t, r, http.MethodDelete, base, nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", w.Code)
	}
	if w = do(t, r, http.MethodGet, base, nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("history after delete status = %d", w.Code)
	}
}

func TestSendMessageErrors(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/conversations/nope/messages", handlers.MessageRequest{Message: "hi"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	apiErr := decode[handlers.APIError](t, w)
	if apiErr.Code != "NOT_FOUND" {
		t.Errorf("error = %+v", apiErr)
	}

	created := decode[handlers.ConversationCreateResponse](t, do(t, r, http.MethodPost, "/api/v1/conversations", map[string]string{"user_id": "u1"}, nil))
	w = do(t, r, http.MethodPost, "/api/v1/conversations/"+created.SessionID+"/messages", map[string]string{"message": ""}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d", w.Code)
	}
}

func token(t *testing.T, role, issuer string) http.Header {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "staff-1",
		"role": role,
		"iss":  issuer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return http.Header{"Authorization": []string{"Bearer " + s}}
}

func TestAdminRoutes(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, http.MethodPost, "/api/v1/conversations", nil, nil)

	cases := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"wrong issuer", token(t, "admin", "someone-else"), http.StatusUnauthorized},
		{"not admin", token(t, "staff", "bikeshop"), http.StatusForbidden},
		{"admin", token(t, "admin", "bikeshop"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, http.MethodGet, "/api/v1/admin/stats", nil, tc.header)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}

	w := do(t, r, http.MethodGet, "/api/v1/admin/stats", nil, token(t, "admin", "bikeshop"))
	stats := decode[handlers.StatsResponse](t, w)
	if stats.ActiveSessions != 1 {
		t.Errorf("stats = %+v", stats)
	}

	w = do(t, r, http.MethodPost, "/api/v1/admin/sessions/cleanup", nil, token(t, "admin", "bikeshop"))
	if w.Code != http.StatusOK {
		t.Errorf("cleanup status = %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/v1/admin/leads/resync", nil, token(t, "admin", "bikeshop"))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("resync without ledger status = %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/conversations", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Errorf("no CORS headers: %v", w.Header())
	}
}
