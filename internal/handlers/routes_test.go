// internal/handlers/routes_test.go
package handlers

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jason-s-yu/quest/internal/game"
	"github.com/jason-s-yu/quest/internal/lobby"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRouter() (http.Handler, *lobby.Store) {
	logger := quietLogger()
	store := lobby.NewStore(lobby.Options{Logger: logger})
	return NewRouter(logger, store, RouterConfig{Version: "1.2.3"}), store
}

func TestHealthAndVersion(t *testing.T) {
	router, _ := newTestRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body["version"])
}

func TestListLobbies(t *testing.T) {
	router, store := newTestRouter()
	_, err := store.GetOrCreate("ROOM").Join("ada", game.NewConnection(nil, nil))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/lobbies", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var list []game.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ROOM", list[0].LobbyID)
	assert.Equal(t, game.PhaseLobby, list[0].Phase)
	assert.Equal(t, 1, list[0].PlayerCount)
}

func TestQRHandler(t *testing.T) {
	router, _ := newTestRouter()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/lobby/ROOM/qr", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))
}

func TestJoinURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/lobby/ROOM/qr", nil)
	r.Host = "quest.example"
	assert.Equal(t, "http://quest.example/?lobby=ROOM", JoinURL("", r, "ROOM"))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://quest.example/?lobby=A+B", JoinURL("", r, "A B"))

	r = httptest.NewRequest(http.MethodGet, "/lobby/ROOM/qr", nil)
	r.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https://example.com/?lobby=ROOM", JoinURL("", r, "ROOM"))

	assert.Equal(t, "https://play.example/?lobby=ROOM", JoinURL("https://play.example/", r, "ROOM"))
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
