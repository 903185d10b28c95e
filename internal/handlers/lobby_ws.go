// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/game"
	"github.com/jason-s-yu/quest/internal/lobby"
	"github.com/jason-s-yu/quest/internal/middleware"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "quest"

var pingInterval = 30 * time.Second

// client is the per-connection view of a lobby. Only the read pump touches it.
type client struct {
	conn     *game.Connection
	store    *lobby.Store
	logger   logrus.FieldLogger
	session  *game.Session
	playerID uuid.UUID
	lobbyID  string
}

// LobbyWSHandler accepts a websocket and serves one player until it disconnects.
// The connection is bound to a lobby by its first successful JOIN_GAME.
func LobbyWSHandler(logger *logrus.Logger, store *lobby.Store, origins []string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		remoteAddr := r.RemoteAddr
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: origins,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.CloseNow()

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the quest subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		entry := logger.WithField("remote", remoteAddr)
		cl := &client{
			conn:   game.NewConnection(cancel, entry),
			store:  store,
			logger: entry,
		}

		go writePump(ctx, c, cl.conn, entry)

		readErr := cl.readPump(ctx, c)
		cl.leave()
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, readErr)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump decodes frames one at a time and applies them to the session.
func (cl *client) readPump(ctx context.Context, c *websocket.Conn) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			cl.conn.WriteError(fmt.Errorf("%w: binary frames are not supported", game.ErrMalformedMessage))
			continue
		}
		cl.handleMessage(msg)
	}
}

// handleMessage dispatches one frame. A panic is contained to this message.
func (cl *client) handleMessage(data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			cl.logger.WithFields(logrus.Fields{
				"lobby":  cl.lobbyID,
				"player": cl.playerID,
				"panic":  rec,
			}).Errorf("Recovered from panic while handling message\n%s", debug.Stack())
			cl.conn.WriteError(fmt.Errorf("%w: internal error", game.ErrIllegalPhase))
		}
	}()

	lobbyID, action, err := DecodeMessage(data)
	if err != nil {
		cl.reject(err)
		return
	}

	if join, ok := action.(*JoinGame); ok {
		cl.reject(cl.join(lobbyID, join.PlayerName))
		return
	}
	if cl.session == nil {
		cl.reject(fmt.Errorf("%w: join a lobby first", game.ErrPlayerNotFound))
		return
	}
	if lobby.NormalizeCode(lobbyID) != cl.lobbyID {
		cl.reject(fmt.Errorf("%w: %s", game.ErrLobbyNotFound, lobbyID))
		return
	}
	cl.session.Touch()
	cl.reject(action.Apply(cl.session, cl.playerID))
}

// join binds the connection to a lobby, retrying once if the lobby was swept
// between lookup and join.
func (cl *client) join(lobbyID, name string) error {
	if cl.session != nil {
		return game.ErrAlreadyJoined
	}
	code := lobby.NormalizeCode(lobbyID)
	sess := cl.store.GetOrCreate(code)
	id, err := sess.Join(name, cl.conn)
	if errors.Is(err, game.ErrLobbyNotFound) {
		sess = cl.store.GetOrCreate(code)
		id, err = sess.Join(name, cl.conn)
	}
	if err != nil {
		return err
	}
	cl.session, cl.playerID, cl.lobbyID = sess, id, code
	cl.logger = cl.logger.WithFields(logrus.Fields{"lobby": code, "player": id})
	return nil
}

func (cl *client) leave() {
	if cl.session != nil {
		cl.session.HandleDisconnect(cl.playerID, cl.conn)
	}
}

// reject reports err to the sender only.
func (cl *client) reject(err error) {
	if err == nil {
		return
	}
	if game.KindOf(err) == game.KindProgrammer {
		cl.logger.WithError(err).Error("Action aborted")
	} else {
		cl.logger.WithError(err).Debug("Action rejected")
	}
	cl.conn.WriteError(err)
}

// writePump drains the connection outbox and keeps the socket alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *game.Connection, logger logrus.FieldLogger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.OutChan:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing %s: %v", ev.Event, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket: %v", err)
				conn.Close()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Failed to send ping: %v. Assuming disconnect.", err)
				conn.Close()
				return
			}
		}
	}
}
