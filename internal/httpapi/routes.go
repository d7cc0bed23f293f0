package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pickban/draft-server/internal/registry"
	"github.com/pickban/draft-server/internal/snapshot"
	"github.com/pickban/draft-server/internal/ws"
)

func SetupRoutes(reg *registry.Registry, store *snapshot.Store, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Post("/rooms", NewCode(reg))
	r.Get("/api/rooms", ListRooms(reg, store, log))
	r.Get("/ws", ws.Handler(reg, log))
	return r
}
