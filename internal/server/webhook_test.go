package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type recordingHandler struct {
	updates chan tgbotapi.Update
}

func (h *recordingHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	h.updates <- update
}

func newTestServer() (*Server, *recordingHandler) {
	handler := &recordingHandler{updates: make(chan tgbotapi.Update, 1)}
	return New(":0", "test-token", handler, zap.NewNop()), handler
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var body statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	return body
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test-token", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if body := decodeStatus(t, rec); body.Status != "method not allowed" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestWebhook_InvalidPayload(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test-token", strings.NewReader("{not json"))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeStatus(t, rec)
	if body.Status != "error" || body.Message == "" {
		t.Fatalf("expected error body with a message, got %+v", body)
	}
}

func TestWebhook_DispatchesUpdate(t *testing.T) {
	srv, handler := newTestServer()

	payload := `{"update_id":101,"message":{"message_id":1,"chat":{"id":55},"text":"hello"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test-token", strings.NewReader(payload))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeStatus(t, rec); body.Status != "ok" {
		t.Fatalf("expected ok status, got %+v", body)
	}

	select {
	case update := <-handler.updates:
		if update.UpdateID != 101 {
			t.Fatalf("expected update 101, got %d", update.UpdateID)
		}
		if update.Message == nil || update.Message.Text != "hello" {
			t.Fatalf("message text lost in decoding: %+v", update.Message)
		}
	case <-time.After(time.Second):
		t.Fatalf("update never reached the handler")
	}
}
