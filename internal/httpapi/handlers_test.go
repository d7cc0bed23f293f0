package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pickban/draft-server/internal/registry"
)

func newTestRouter(t *testing.T) (http.Handler, *registry.Registry) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	reg := registry.New(ctx, registry.Config{
		StartCountdown: time.Hour,
		ActionTimeout:  time.Hour,
		GracePeriod:    time.Hour,
	})
	return SetupRoutes(reg, nil, zap.NewNop()), reg
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNewCode_ReturnsUnusedCode(t *testing.T) {
	router, reg := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), body.Code)

	// The code is only reserved by init-room, so it must still be free.
	_, err := reg.GetSync(body.Code)
	require.ErrorIs(t, err, registry.ErrRoomNotFound)
}

func TestListRooms_LiveFallbackWithoutStore(t *testing.T) {
	router, reg := newTestRouter(t)

	_, err := reg.CreateSync("ABC123")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Rooms []struct {
			Code    string `json:"code"`
			Players struct {
				HasLeft  bool `json:"hasLeft"`
				HasRight bool `json:"hasRight"`
			} `json:"players"`
			Spectators int `json:"spectators"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rooms, 1)
	require.Equal(t, "ABC123", body.Rooms[0].Code)
	require.False(t, body.Rooms[0].Players.HasLeft)
	require.Zero(t, body.Rooms[0].Spectators)
}

func TestGenerateCode_Shape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		seen[code] = true
	}
	// Collisions in 32 draws from 36^6 would mean a broken generator.
	require.Len(t, seen, 32)
}
