package server

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// UpdateHandler consumes decoded Telegram updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Server is the inbound webhook transport: one POST endpoint whose path
// contains the bot token, so only Telegram can guess it.
type Server struct {
	handler UpdateHandler
	logger  *zap.Logger
	addr    string
	path    string
}

func New(addr, token string, handler UpdateHandler, logger *zap.Logger) *Server {
	return &Server{
		handler: handler,
		logger:  logger,
		addr:    addr,
		path:    "/" + token,
	}
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.logger.Warn("Received non-POST request to webhook endpoint",
			zap.String("method", r.Method))
		writeJSON(w, http.StatusMethodNotAllowed, statusResponse{Status: "method not allowed"})
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Error("Failed to decode webhook payload", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	s.logger.Debug("Received webhook update", zap.Int("update_id", update.UpdateID))

	// Each update is one independent task; the webhook acknowledges as
	// soon as the payload is accepted so Telegram does not re-deliver
	// while a slow generation call is in flight.
	go s.handler.HandleUpdate(context.Background(), update)

	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) Run() error {
	mux := http.NewServeMux()
	mux.Handle(s.path, s)

	s.logger.Info("Starting webhook server", zap.String("address", s.addr))
	return http.ListenAndServe(s.addr, mux)
}

func writeJSON(w http.ResponseWriter, status int, body statusResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
