package http

import (
	"encoding/json"
	"net/http"

	"github.com/classmeet/signaling/internal/adapter/driven/gateway/ws"
	"github.com/classmeet/signaling/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	Meeting *service.MeetingService
	Hub     *ws.Hub
}

func NewHandler(meeting *service.MeetingService, hub *ws.Hub) *Handler {
	return &Handler{
		Meeting: meeting,
		Hub:     hub,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Get("/ws", h.ServeWS)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rooms, participants := h.Meeting.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"rooms":        rooms,
		"participants": participants,
		"connections":  h.Hub.Connections(),
	})
}
