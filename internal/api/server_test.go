package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lemontycoon/internal/config"
	"lemontycoon/internal/game"
)

func newTestServer(t *testing.T, cfg config.APIConfig) http.Handler {
	t.Helper()
	svc := game.NewService(game.Options{Rand: game.NewRand(7)})
	return New(cfg, nil, svc).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, out
}

func stateField(t *testing.T, resp map[string]any, key string) any {
	t.Helper()
	st, ok := resp["state"].(map[string]any)
	if !ok {
		t.Fatalf("response has no state: %v", resp)
	}
	return st[key]
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	code, body := do(t, h, http.MethodGet, "/healthz", "", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["ok"] != true || body["game"] != "Lemonade Tycoon" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestStateOnBothPrefixes(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	for _, path := range []string{"/v1/state", "/api/state"} {
		code, body := do(t, h, http.MethodGet, path, "", nil)
		if code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, code)
		}
		if body["cash"] != 25.0 || body["day"] != 1.0 {
			t.Fatalf("%s: unexpected state: %v", path, body)
		}
		if _, ok := body["upgrade_info"]; !ok {
			t.Fatalf("%s: missing upgrade_info", path)
		}
	}
}

func TestPriceAcceptAndDecline(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})

	code, body := do(t, h, http.MethodPost, "/v1/price", `{"price":1.75}`, nil)
	if code != http.StatusOK || body["success"] != true {
		t.Fatalf("expected success, got %d %v", code, body)
	}
	if got := stateField(t, body, "price"); got != 1.75 {
		t.Fatalf("expected price 1.75, got %v", got)
	}

	for _, in := range []string{`{"price":0}`, `{"price":10.01}`, `{}`} {
		code, body = do(t, h, http.MethodPost, "/v1/price", in, nil)
		if code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", in, code)
		}
		if body["success"] != false || body["error"] != "invalid_price" || body["message"] == "" {
			t.Fatalf("%s: unexpected decline body: %v", in, body)
		}
	}
}

func TestRejectsUnknownFields(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	code, body := do(t, h, http.MethodPost, "/v1/price", `{"price":1,"discount":true}`, nil)
	if code != http.StatusBadRequest || body["error"] != "bad_request" {
		t.Fatalf("expected bad_request, got %d %v", code, body)
	}
}

func TestRecipeKeepsOmittedRatio(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	code, body := do(t, h, http.MethodPost, "/v1/recipe", `{"lemon_ratio":9}`, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", code, body)
	}
	recipe, _ := stateField(t, body, "recipe").(map[string]any)
	if recipe["lemon_ratio"] != 1.5 || recipe["sugar_ratio"] != 1.0 {
		t.Fatalf("unexpected recipe: %v", recipe)
	}
}

func TestBuyDeclines(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	tests := []struct {
		body string
		code string
	}{
		{`{"item":"mangoes","quantity":1}`, "unknown_item"},
		{`{"item":"lemons","quantity":0}`, "invalid_quantity"},
		{`{"item":"lemons","quantity":51}`, "insufficient_funds"},
	}
	for _, tt := range tests {
		status, body := do(t, h, http.MethodPost, "/v1/buy", tt.body, nil)
		if status != http.StatusBadRequest || body["error"] != tt.code {
			t.Fatalf("%s: expected 400 %s, got %d %v", tt.body, tt.code, status, body)
		}
	}

	status, body := do(t, h, http.MethodPost, "/v1/buy", `{"item":"Lemons","quantity":50}`, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	if got := stateField(t, body, "cash"); got != 0.0 {
		t.Fatalf("expected cash 0, got %v", got)
	}
}

func TestUpgradeDeclines(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	status, body := do(t, h, http.MethodPost, "/v1/upgrade", `{"type":"robot"}`, nil)
	if status != http.StatusBadRequest || body["error"] != "unknown_upgrade" {
		t.Fatalf("expected unknown_upgrade, got %d %v", status, body)
	}
	status, body = do(t, h, http.MethodPost, "/v1/upgrade", `{"type":"juicer"}`, nil)
	if status != http.StatusBadRequest || body["error"] != "insufficient_funds" {
		t.Fatalf("expected insufficient_funds, got %d %v", status, body)
	}
}

func TestDuplicateIdempotencyKey(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	headers := map[string]string{"Idempotency-Key": "buy-1"}
	status, _ := do(t, h, http.MethodPost, "/v1/buy", `{"item":"cups","quantity":10}`, headers)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	status, body := do(t, h, http.MethodPost, "/v1/buy", `{"item":"cups","quantity":10}`, headers)
	if status != http.StatusConflict || body["error"] != "duplicate_request" {
		t.Fatalf("expected 409, got %d %v", status, body)
	}
	_, st := do(t, h, http.MethodGet, "/v1/state", "", nil)
	inv, _ := st["inventory"].(map[string]any)
	if inv["cups"] != 20.0 {
		t.Fatalf("duplicate must not apply twice, cups=%v", inv["cups"])
	}
}

func TestStartDayResponse(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	status, body := do(t, h, http.MethodPost, "/v1/start-day", "", nil)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("expected success, got %d %v", status, body)
	}
	for _, key := range []string{"day", "weather", "log", "summary", "achievements", "new_state"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("missing %q in %v", key, body)
		}
	}
	next, _ := body["new_state"].(map[string]any)
	if next["day"] != 2.0 {
		t.Fatalf("expected day 2, got %v", next["day"])
	}
}

func TestResetRequiresAdminToken(t *testing.T) {
	h := newTestServer(t, config.APIConfig{AdminToken: "s3cret"})
	do(t, h, http.MethodPost, "/v1/start-day", "", nil)

	status, body := do(t, h, http.MethodPost, "/v1/reset", "", nil)
	if status != http.StatusUnauthorized || body["error"] != "unauthorized" {
		t.Fatalf("expected 401, got %d %v", status, body)
	}
	status, _ = do(t, h, http.MethodPost, "/v1/reset", "", map[string]string{"Authorization": "Bearer nope"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", status)
	}
	status, body = do(t, h, http.MethodPost, "/api/reset", "", map[string]string{"Authorization": "Bearer s3cret"})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	if got := stateField(t, body, "day"); got != 1.0 {
		t.Fatalf("expected day 1 after reset, got %v", got)
	}
}

func TestResetOpenWithoutToken(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	status, _ := do(t, h, http.MethodPost, "/v1/reset", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearerabc":    "",
	}
	for in, want := range tests {
		if got := bearerToken(in); got != want {
			t.Fatalf("bearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
