package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pickban/draft-server/internal/draft"
	"github.com/pickban/draft-server/internal/registry"
	"github.com/pickban/draft-server/internal/room"
	"github.com/pickban/draft-server/internal/types"
)

const writeTimeout = 3 * time.Second

// session is one connection's bookkeeping: its ID, its outbox client, and
// the single room (with role) it has joined, if any. This is the
// connection -> (room, role) side of the index; the room holds the inverse.
type session struct {
	id     string
	client *room.Client
	room   *room.Room
	role   string
}

// Handler upgrades to WebSocket and runs the session: a writer goroutine
// drains room broadcasts from the outbox while the reader loop routes each
// JSON request to exactly one registry or room operation. Acks and errors
// go straight to the requesting connection; they are never broadcast.
func Handler(reg *registry.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sess := &session{id: uuid.NewString()}
		sess.client = &room.Client{
			ID:     sess.id,
			Outbox: make(chan types.ServerMessage, 16),
		}

		writeCtx, writeCancel := context.WithCancel(context.Background())
		defer writeCancel()
		go func() {
			// The room closes the outbox on eviction or teardown. Closing
			// the conn here disconnects the participant, which unblocks the
			// reader and ends the session instead of leaving it stranded in
			// a room that no longer exists.
			for msg := range sess.client.Outbox {
				writeMsg(writeCtx, conn, msg)
			}
			conn.Close(websocket.StatusNormalClosure, "room closed")
		}()

		// A network drop is not an error, it is the cleanup path.
		defer func() {
			if sess.room != nil {
				log.Debug("session disconnected",
					zap.String("client", sess.id), zap.String("role", sess.role))
				sess.room.LeaveSync(sess.id)
			}
		}()

		send := func(msg types.ServerMessage) {
			writeMsg(r.Context(), conn, msg)
		}

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				// Malformed input never crashes or answers; log and move on.
				log.Debug("ignoring malformed message", zap.String("client", sess.id), zap.Error(err))
				continue
			}
			dispatch(reg, sess, cm, send, log)
		}
	}
}

func writeMsg(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}

func dispatch(reg *registry.Registry, sess *session, cm types.ClientMessage, send func(types.ServerMessage), log *zap.Logger) {
	switch cm.Type {
	case "init-room":
		if sess.room != nil {
			send(types.Error("Already in a room"))
			return
		}
		rm, err := reg.CreateSync(cm.RoomCode)
		if errors.Is(err, registry.ErrRoomExists) {
			send(types.Error("Room already exists"))
			return
		}
		if err != nil {
			send(types.Error("Failed to create room"))
			return
		}
		state, err := rm.JoinSync(sess.client, draft.SideLeft, true)
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		sess.room, sess.role = rm, "left"
		send(types.ServerMessage{Type: "room-initialized", RoomCode: cm.RoomCode, Side: "left", RoomState: &state})

	case "join-room":
		if sess.room != nil {
			send(types.Error("Already in a room"))
			return
		}
		side, ok := parseSide(cm.Side)
		if !ok {
			send(types.Error("Invalid side"))
			return
		}
		rm, err := reg.GetSync(cm.RoomCode)
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		state, err := rm.JoinSync(sess.client, side, false)
		if errors.Is(err, room.ErrSlotTaken) {
			if side == draft.SideLeft {
				send(types.Error("Left player slot already taken"))
			} else {
				send(types.Error("Right player slot already taken"))
			}
			return
		}
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		sess.room, sess.role = rm, string(side)
		send(types.ServerMessage{Type: "room-joined", RoomCode: cm.RoomCode, Side: string(side), RoomState: &state})

	case "spectate-room":
		if sess.room != nil {
			send(types.Error("Already in a room"))
			return
		}
		rm, err := reg.GetSync(cm.RoomCode)
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		state, err := rm.SpectateSync(sess.client)
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		sess.room, sess.role = rm, "spectator"
		send(types.ServerMessage{Type: "room-spectated", RoomCode: cm.RoomCode, Side: "spectator", RoomState: &state})

	case "apply-action":
		side, ok := parseSide(cm.Side)
		if !ok {
			send(types.Error("Invalid side"))
			return
		}
		rm, err := reg.GetSync(cm.RoomCode)
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		if _, err := rm.ActSync(side, cm.HeroID); err != nil {
			send(types.Error(err.Error()))
		}
		// Success needs no direct ack: the state-updated broadcast reaches
		// the requester through its outbox.

	case "reset-room":
		rm, err := reg.GetSync(cm.RoomCode)
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		if !rm.ResetSync() {
			send(types.Error("Room not found"))
		}

	case "update-state":
		if cm.State == nil {
			log.Debug("update-state with no state", zap.String("client", sess.id))
			return
		}
		rm, err := reg.GetSync(cm.RoomCode)
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		if !rm.OverwriteSync(*cm.State) {
			send(types.Error("Room not found"))
		}

	case "get-room-state":
		rm, err := reg.GetSync(cm.RoomCode)
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		state, err := rm.StateSync()
		if err != nil {
			send(types.Error("Room not found"))
			return
		}
		send(types.ServerMessage{Type: "room-state", RoomState: &state})

	case "check-room-capacity":
		exists, hasLeft, hasRight := reg.Capacity(cm.RoomCode)
		send(types.ServerMessage{
			Type:     "capacity-check",
			Capacity: &types.Capacity{Exists: exists, HasLeft: hasLeft, HasRight: hasRight},
		})

	default:
		log.Debug("unknown message type", zap.String("type", cm.Type), zap.String("client", sess.id))
	}
}

func parseSide(side string) (draft.Side, bool) {
	switch side {
	case "left":
		return draft.SideLeft, true
	case "right":
		return draft.SideRight, true
	default:
		return "", false
	}
}
