package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"lemontycoon/internal/config"
)

func functionURLEvent(method, path, body string) events.LambdaFunctionURLRequest {
	ev := events.LambdaFunctionURLRequest{
		RawPath: path,
		Body:    body,
		Headers: map[string]string{"content-type": "application/json"},
	}
	ev.RequestContext.HTTP.Method = method
	ev.RequestContext.HTTP.SourceIP = "203.0.113.9"
	return ev
}

func TestServeFunctionURLState(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	resp, err := ServeFunctionURL(context.Background(), h, functionURLEvent(http.MethodGet, "/api/state", ""))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected headers: %v", resp.Headers)
	}
	var st map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st["day"] != 1.0 {
		t.Fatalf("unexpected state: %v", st)
	}
}

func TestServeFunctionURLBase64Body(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	ev := functionURLEvent(http.MethodPost, "/v1/price", base64.StdEncoding.EncodeToString([]byte(`{"price":2.5}`)))
	ev.IsBase64Encoded = true

	resp, err := ServeFunctionURL(context.Background(), h, ev)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	ev.Body = "%%%"
	resp, err = ServeFunctionURL(context.Background(), h, ev)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad base64, got %d", resp.StatusCode)
	}
}

func TestServeFunctionURLDecline(t *testing.T) {
	h := newTestServer(t, config.APIConfig{})
	resp, err := ServeFunctionURL(context.Background(), h, functionURLEvent(http.MethodPost, "/v1/buy", `{"item":"gold","quantity":1}`))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
