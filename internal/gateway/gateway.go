package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"roomchat/internal/pipeline"
	"roomchat/internal/presence"
	"roomchat/internal/room"
	"roomchat/internal/session"
	"roomchat/pkg/interfaces"
	"roomchat/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy belongs to the deployment in front of this core.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

const connectDeadline = 10 * time.Second

// Gateway is the connection entry point: it upgrades websockets,
// authenticates the connect handshake, dispatches the per-connection
// event loop and runs the disconnect path. It performs structural
// validation only; business logic lives in the pipeline and registries.
//
// Every error surfaces as a single unicast error event to the originating
// connection, never a broadcast. Only a failed handshake closes the
// connection.
type Gateway struct {
	table     *Table
	sessions  *session.Registry
	rooms     *room.Registry
	scheduler *presence.Scheduler
	pipeline  *pipeline.Pipeline
	identity  interfaces.IdentityProvider
}

// New creates a gateway wired to its collaborators.
func New(table *Table, sessions *session.Registry, rooms *room.Registry, scheduler *presence.Scheduler, pipe *pipeline.Pipeline, identity interfaces.IdentityProvider) *Gateway {
	return &Gateway{
		table:     table,
		sessions:  sessions,
		rooms:     rooms,
		scheduler: scheduler,
		pipeline:  pipe,
		identity:  identity,
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (g *Gateway) RegisterRoutes(r chi.Router) {
	r.Get("/ws", g.HandleWebSocket)
}

// HandleWebSocket upgrades the request and hands the connection to its
// event loop.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn := newConn(ws)
	go g.serve(r, conn)
}

// serve runs the full connection lifecycle: handshake, event loop,
// disconnect.
func (g *Gateway) serve(r *http.Request, conn *Conn) {
	defer g.onDisconnect(conn)

	if err := g.handshake(r, conn); err != nil {
		log.Printf("Handshake rejected: conn_id=%s err=%v", conn.ID(), err)
		return
	}

	ctx := context.Background()
	for {
		env, err := conn.readEnvelope()
		if errors.Is(err, ErrInvalidFrame) {
			g.sendError(conn, types.CodeValidationError, "malformed frame")
			continue
		}
		if err != nil {
			return
		}
		g.dispatch(ctx, conn, env)
	}
}

// handshake reads the connect frame and authenticates it. A missing or
// invalid identity emits UNAUTHORIZED and forcibly closes the connection;
// there is no retry.
func (g *Gateway) handshake(r *http.Request, conn *Conn) error {
	_ = conn.ws.SetReadDeadline(time.Now().Add(connectDeadline))

	env, err := conn.readEnvelope()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeTimeout, err)
	}
	_ = conn.ws.SetReadDeadline(time.Time{})

	var handshake types.Handshake
	if env.Event != types.EventConnect {
		g.sendError(conn, types.CodeUnauthorized, "expected connect handshake")
		return interfaces.ErrUnauthorized
	}
	// A malformed data object is treated as an empty handshake and left
	// for the identity provider to reject.
	_ = json.Unmarshal(env.Data, &handshake)

	userID, displayName, err := g.identity.Authenticate(r, handshake)
	if err != nil {
		g.sendError(conn, types.CodeUnauthorized, "missing or invalid identity")
		return err
	}

	g.table.add(conn)
	sess, prevConnID := g.sessions.Register(conn.ID(), userID, displayName)

	if prevConnID != "" {
		// Reconnection: the fresh registration supersedes the old
		// connection and carries its room over. Presence is not
		// re-announced as a join.
		g.scheduler.Cancel(userID)
		if old, ok := g.table.get(prevConnID); ok {
			g.table.remove(prevConnID)
			go func() { _ = old.Close() }()
		}
		if sess.CurrentRoom != "" {
			g.rooms.BroadcastExcept(sess.CurrentRoom, conn.ID(), types.EventUserReconnected, types.PresencePayload{
				Nickname: displayName,
			})
		}
		log.Printf("Reconnected: conn_id=%s user_id=%s room=%s", conn.ID(), userID, sess.CurrentRoom)
		return nil
	}

	if lastRoom, resumed := g.scheduler.Resume(userID); resumed {
		// Reconnection within the grace window after a full disconnect.
		// The session was already removed, so the room is restored from
		// the pending departure instead of a superseded registration.
		if lastRoom != "" {
			if err := g.sessions.SetRoom(conn.ID(), lastRoom); err == nil {
				g.rooms.BroadcastExcept(lastRoom, conn.ID(), types.EventUserReconnected, types.PresencePayload{
					Nickname: displayName,
				})
			}
		}
		log.Printf("Reconnected within grace: conn_id=%s user_id=%s room=%s", conn.ID(), userID, lastRoom)
		return nil
	}

	if err := conn.Send(types.EventSystemNotice, types.NoticePayload{Message: "Welcome, " + displayName}); err != nil {
		log.Printf("Failed to send welcome notice: %v", err)
	}
	log.Printf("Connected: conn_id=%s user_id=%s", conn.ID(), userID)
	return nil
}

// dispatch routes one inbound event. Every handler tolerates a connection
// without a session (superseded or never authenticated) by answering
// UNAUTHORIZED instead of failing.
func (g *Gateway) dispatch(ctx context.Context, conn *Conn, env types.Envelope) {
	sess, ok := g.sessions.Get(conn.ID())
	if !ok {
		g.sendError(conn, types.CodeUnauthorized, "no active session")
		return
	}

	switch env.Event {
	case types.EventJoinRoom:
		g.handleJoin(conn, sess, env.Data)
	case types.EventLeaveRoom:
		g.handleLeave(conn, sess)
	case types.EventSendMessage:
		g.handleSend(ctx, conn, sess, env.Data)
	case types.EventGetChatLogs:
		g.handleLogs(ctx, conn, sess, env.Data)
	default:
		g.sendError(conn, types.CodeValidationError, "unknown event: "+env.Event)
	}
}

func (g *Gateway) handleJoin(conn *Conn, sess types.Session, data json.RawMessage) {
	var payload types.JoinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.sendError(conn, types.CodeValidationError, "malformed join_room payload")
		return
	}
	if err := payload.Validate(); err != nil {
		g.sendError(conn, types.CodeValidationError, "room code must be 4-20 alphanumeric characters")
		return
	}

	if sess.CurrentRoom == payload.RoomCode {
		// Rejoining the current room is an idempotent ack.
		_ = conn.Send(types.EventJoinedRoom, types.RoomPayload{RoomCode: payload.RoomCode})
		return
	}

	if sess.CurrentRoom != "" {
		g.rooms.BroadcastExcept(sess.CurrentRoom, conn.ID(), types.EventUserLeft, types.PresencePayload{
			Nickname: sess.DisplayName,
		})
	}

	if err := g.sessions.SetRoom(conn.ID(), payload.RoomCode); err != nil {
		g.sendError(conn, types.CodeServerError, "failed to join room")
		return
	}

	g.rooms.BroadcastExcept(payload.RoomCode, conn.ID(), types.EventUserJoined, types.PresencePayload{
		Nickname: sess.DisplayName,
	})
	_ = conn.Send(types.EventJoinedRoom, types.RoomPayload{RoomCode: payload.RoomCode})
	log.Printf("Joined room: conn_id=%s user_id=%s room=%s", conn.ID(), sess.UserID, payload.RoomCode)
}

func (g *Gateway) handleLeave(conn *Conn, sess types.Session) {
	if sess.CurrentRoom == "" {
		g.sendError(conn, types.CodeNotInRoom, "not in a room")
		return
	}

	left := sess.CurrentRoom
	if err := g.sessions.SetRoom(conn.ID(), ""); err != nil {
		g.sendError(conn, types.CodeServerError, "failed to leave room")
		return
	}

	g.rooms.Broadcast(left, types.EventUserLeft, types.PresencePayload{Nickname: sess.DisplayName})
	_ = conn.Send(types.EventLeftRoom, types.RoomPayload{RoomCode: left})
	log.Printf("Left room: conn_id=%s user_id=%s room=%s", conn.ID(), sess.UserID, left)
}

func (g *Gateway) handleSend(ctx context.Context, conn *Conn, sess types.Session, data json.RawMessage) {
	var payload types.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.sendError(conn, types.CodeValidationError, "malformed send_message payload")
		return
	}

	if err := g.pipeline.Process(ctx, sess, payload); err != nil {
		g.sendPipelineError(conn, err)
	}
}

func (g *Gateway) handleLogs(ctx context.Context, conn *Conn, sess types.Session, data json.RawMessage) {
	var payload types.GetChatLogsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.sendError(conn, types.CodeValidationError, "malformed get_chat_logs payload")
		return
	}

	messages, err := g.pipeline.Logs(ctx, sess, payload)
	if err != nil {
		g.sendPipelineError(conn, err)
		return
	}
	_ = conn.Send(types.EventChatLogs, messages)
}

// onDisconnect removes the session immediately, so the identity is
// reusable at once, then arms the grace scheduler before anyone is told
// the user left.
func (g *Gateway) onDisconnect(conn *Conn) {
	g.table.remove(conn.ID())

	sess, ok := g.sessions.Get(conn.ID())
	if ok {
		g.sessions.Remove(conn.ID())
		g.scheduler.Arm(sess.UserID, sess.DisplayName, sess.CurrentRoom)
		log.Printf("Disconnected: conn_id=%s user_id=%s", conn.ID(), sess.UserID)
	}

	_ = conn.Close()
}

// sendPipelineError maps pipeline sentinels to wire error codes. Internal
// failure detail stays in the server log; the client gets the stable code.
func (g *Gateway) sendPipelineError(conn *Conn, err error) {
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		g.sendError(conn, types.CodeValidationError, "invalid payload")
	case errors.Is(err, pipeline.ErrInvalidRoom):
		g.sendError(conn, types.CodeInvalidRoom, "not a member of that room")
	case errors.Is(err, pipeline.ErrRateLimited):
		g.sendError(conn, types.CodeRateLimited, "too many messages")
	case errors.Is(err, pipeline.ErrEmptyMessage):
		g.sendError(conn, types.CodeEmptyMessage, "message is empty")
	case errors.Is(err, pipeline.ErrMessageTooLong):
		g.sendError(conn, types.CodeMessageTooLong, "message too long")
	default:
		log.Printf("Pipeline failure: conn_id=%s err=%v", conn.ID(), err)
		g.sendError(conn, types.CodeServerError, "internal server error")
	}
}

func (g *Gateway) sendError(conn *Conn, code, reason string) {
	payload := types.ErrorPayload{Code: code, Reason: reason}
	if code == types.CodeRateLimited {
		payload.RetryAfterSeconds = int(g.pipeline.RetryAfter().Seconds())
	}
	if err := conn.Send(types.EventError, payload); err != nil {
		log.Printf("Failed to send error event: conn_id=%s err=%v", conn.ID(), err)
	}
}
