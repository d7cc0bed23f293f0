package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pickban/draft-server/internal/registry"
	"github.com/pickban/draft-server/internal/room"
	"github.com/pickban/draft-server/internal/types"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return registry.New(ctx, registry.Config{
		StartCountdown: time.Hour,
		ActionTimeout:  time.Hour,
		GracePeriod:    time.Hour,
	})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(Handler(newTestRegistry(t), zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
}

func readJSON(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// An owner departure must evict survivors all the way down to the socket:
// they receive room-closed, their connection is closed by the server, and a
// reconnect starts from a clean slate.
func TestHandler_OwnerTeardownDisconnectsSurvivors(t *testing.T) {
	srv := newTestServer(t)

	owner := dialWS(t, srv)
	sendJSON(t, owner, types.ClientMessage{Type: "init-room", RoomCode: "ABC123"})
	require.Equal(t, "room-initialized", readJSON(t, owner).Type)

	right := dialWS(t, srv)
	sendJSON(t, right, types.ClientMessage{Type: "join-room", RoomCode: "ABC123", Side: "right"})
	require.Equal(t, "room-joined", readJSON(t, right).Type)

	require.NoError(t, owner.Close(websocket.StatusNormalClosure, "bye"))

	msg := readJSON(t, right)
	require.Equal(t, "room-closed", msg.Type)
	require.Equal(t, "ABC123", msg.RoomCode)

	// The server closes the survivor's socket rather than leaving it
	// stranded; the next read fails with a close status, not a timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := right.Read(ctx)
	require.Error(t, err)
	require.NotErrorIs(t, err, context.DeadlineExceeded)

	// A fresh connection can immediately open a new room.
	fresh := dialWS(t, srv)
	defer fresh.Close(websocket.StatusNormalClosure, "bye")
	sendJSON(t, fresh, types.ClientMessage{Type: "init-room", RoomCode: "XYZ789"})
	require.Equal(t, "room-initialized", readJSON(t, fresh).Type)
}

func TestDispatch_CreateFailureMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reg := registry.New(ctx, registry.Config{
		StartCountdown: time.Hour,
		ActionTimeout:  time.Hour,
		GracePeriod:    time.Hour,
	})

	_, err := reg.CreateSync("DUP111")
	require.NoError(t, err)

	var got []types.ServerMessage
	send := func(m types.ServerMessage) { got = append(got, m) }
	newSess := func(id string) *session {
		return &session{id: id, client: &room.Client{ID: id, Outbox: make(chan types.ServerMessage, 8)}}
	}

	dispatch(reg, newSess("c1"), types.ClientMessage{Type: "init-room", RoomCode: "DUP111"}, send, zap.NewNop())
	require.Len(t, got, 1)
	require.Equal(t, "error", got[0].Type)
	require.Equal(t, "Room already exists", got[0].Message)

	// With the registry gone the failure is not a duplicate code and must
	// not be reported as one.
	cancel()
	time.Sleep(50 * time.Millisecond) // let the registry loop exit

	got = nil
	dispatch(reg, newSess("c2"), types.ClientMessage{Type: "init-room", RoomCode: "NEW222"}, send, zap.NewNop())
	require.Len(t, got, 1)
	require.Equal(t, "error", got[0].Type)
	require.Equal(t, "Failed to create room", got[0].Message)
}
