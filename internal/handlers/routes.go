// internal/handlers/routes.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/quest/internal/lobby"
	"github.com/jason-s-yu/quest/internal/middleware"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// RouterConfig carries the settings the HTTP surface needs.
type RouterConfig struct {
	Version   string
	Origins   []string
	PublicURL string
}

// NewRouter wires every endpoint behind the request logger.
func NewRouter(logger *logrus.Logger, store *lobby.Store, cfg RouterConfig) http.Handler {
	if len(cfg.Origins) == 0 {
		cfg.Origins = []string{"*"}
	}

	router := httprouter.New()
	router.GET("/healthz", healthHandler)
	router.GET("/version", versionHandler(cfg.Version))
	router.GET("/lobbies", ListLobbiesHandler(store))
	router.GET("/lobby/:lobbyId/qr", QRHandler(cfg.PublicURL))
	router.GET("/ws", LobbyWSHandler(logger, store, cfg.Origins))

	return middleware.LogMiddleware(logger)(router)
}

func healthHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func versionHandler(version string) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, map[string]string{"version": version})
	}
}

// ListLobbiesHandler returns a summary of every live lobby.
func ListLobbiesHandler(store *lobby.Store) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, store.List())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
