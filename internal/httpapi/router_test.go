package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/agentauth/core/internal/engine"
	"github.com/agentauth/core/internal/guard"
	"github.com/agentauth/core/internal/cryptoutil"
	"github.com/agentauth/core/internal/store"
)

// testRouter returns the engine's backing store alongside the router so
// tests can read a challenge's private answer.
func testRouter(t *testing.T) (*store.MemoryStore, http.Handler) {
	t.Helper()
	cfg := engine.DefaultConfig([]byte("http-test-secret"))
	cfg.PoMI.Enabled = false
	st := store.NewMemoryStore()
	eng := engine.New(cfg, st)
	g := guard.New(guard.Config{Secret: cfg.Secret, MinScore: cfg.MinScore})
	log := zap.NewNop()
	return st, SetupRouter(eng, g, log)
}

func TestHealthEndpoint(t *testing.T) {
	_, router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/health = %d, want 200", rec.Code)
	}
}

func TestChallengeLifecycleOverHTTP(t *testing.T) {
	st, router := testRouter(t)

	initReq := httptest.NewRequest(http.MethodPost, "/v1/challenge/init", strings.NewReader(`{"difficulty":"easy"}`))
	initRec := httptest.NewRecorder()
	router.ServeHTTP(initRec, initReq)
	if initRec.Code != http.StatusCreated {
		t.Fatalf("POST /v1/challenge/init = %d, want 201: %s", initRec.Code, initRec.Body.String())
	}

	var initBody struct {
		ID           string `json:"id"`
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(initRec.Body.Bytes(), &initBody); err != nil {
		t.Fatalf("unmarshal init response: %v", err)
	}

	fetchReq := httptest.NewRequest(http.MethodGet, "/v1/challenge/"+initBody.ID, nil)
	fetchReq.Header.Set("Authorization", "Bearer "+initBody.SessionToken)
	fetchRec := httptest.NewRecorder()
	router.ServeHTTP(fetchRec, fetchReq)
	if fetchRec.Code != http.StatusOK {
		t.Fatalf("GET /v1/challenge/:id = %d, want 200: %s", fetchRec.Code, fetchRec.Body.String())
	}

	rec, ok, err := st.Get(initBody.ID)
	if err != nil || !ok {
		t.Fatalf("store.Get(%s) = ok=%v err=%v, want true/nil", initBody.ID, ok, err)
	}
	answer, _ := rec.Payload.Context["answerHex"].(string)
	// Wait past the default too_fast threshold (50ms) so the solve lands
	// in ai_zone instead of being rejected as too_fast.
	time.Sleep(100 * time.Millisecond)
	hmac := cryptoutil.HMACHex([]byte(initBody.SessionToken), []byte(answer))
	solveBody := `{"answer":"` + answer + `","hmac":"` + hmac + `"}`
	solveReq := httptest.NewRequest(http.MethodPost, "/v1/challenge/"+initBody.ID+"/solve", strings.NewReader(solveBody))
	solveRec := httptest.NewRecorder()
	router.ServeHTTP(solveRec, solveReq)
	if solveRec.Code != http.StatusOK {
		t.Fatalf("POST /v1/challenge/:id/solve = %d, want 200: %s", solveRec.Code, solveRec.Body.String())
	}

	var solveResp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(solveRec.Body.Bytes(), &solveResp); err != nil {
		t.Fatalf("unmarshal solve response: %v", err)
	}
	if solveResp.Token == "" {
		t.Fatalf("solve response carried no token: %s", solveRec.Body.String())
	}

	verifyReq := httptest.NewRequest(http.MethodGet, "/v1/token/verify", nil)
	verifyReq.Header.Set("Authorization", "Bearer "+solveResp.Token)
	verifyRec := httptest.NewRecorder()
	router.ServeHTTP(verifyRec, verifyReq)
	if verifyRec.Code != http.StatusOK {
		t.Fatalf("GET /v1/token/verify = %d, want 200: %s", verifyRec.Code, verifyRec.Body.String())
	}
	var verifyResp struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(verifyRec.Body.Bytes(), &verifyResp); err != nil {
		t.Fatalf("unmarshal verify response: %v", err)
	}
	if !verifyResp.Valid {
		t.Fatalf("token/verify reported invalid: %s", verifyRec.Body.String())
	}
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	_, router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/protected/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("GET /v1/protected/ping without token = %d, want 401", rec.Code)
	}
}
