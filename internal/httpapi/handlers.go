package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pickban/draft-server/internal/registry"
	"github.com/pickban/draft-server/internal/snapshot"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 6

func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}

// NewCode hands out an unused room code. The room itself is created when
// the client sends init-room over the socket, so ownership lands on the
// creating connection.
func NewCode(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if _, err := reg.GetSync(c); err != nil {
				code = c
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

type roomPlayers struct {
	HasLeft  bool `json:"hasLeft"`
	HasRight bool `json:"hasRight"`
}

type roomSummary struct {
	Code       string      `json:"code"`
	OwnerSide  string      `json:"ownerSide,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	Players    roomPlayers `json:"players"`
	Spectators int         `json:"spectators"`
}

// ListRooms reports stored rooms with live occupancy folded in; without a
// snapshot store it lists the live rooms only.
func ListRooms(reg *registry.Registry, store *snapshot.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live := make(map[string]roomSummary)
		for _, rm := range reg.ListSync() {
			info, err := rm.InfoSync()
			if err != nil {
				continue
			}
			live[info.Code] = roomSummary{
				Code:       info.Code,
				CreatedAt:  info.CreatedAt,
				Players:    roomPlayers{HasLeft: info.HasLeft, HasRight: info.HasRight},
				Spectators: info.Spectators,
			}
		}

		var out []roomSummary
		rows, err := store.List()
		if err != nil {
			log.Warn("failed to list stored rooms", zap.Error(err))
			http.Error(w, `{"error":"failed to list rooms"}`, http.StatusInternalServerError)
			return
		}
		if rows == nil {
			for _, s := range live {
				out = append(out, s)
			}
		} else {
			for _, row := range rows {
				s := roomSummary{Code: row.Code, OwnerSide: row.OwnerSide, CreatedAt: row.CreatedAt}
				if l, ok := live[row.Code]; ok {
					s.Players = l.Players
					s.Spectators = l.Spectators
				}
				out = append(out, s)
			}
		}
		if out == nil {
			out = []roomSummary{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Rooms []roomSummary `json:"rooms"`
		}{Rooms: out})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
	}{Status: "ok"})
}
