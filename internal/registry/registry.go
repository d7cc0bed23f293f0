package registry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pickban/draft-server/internal/draft"
	"github.com/pickban/draft-server/internal/room"
	"github.com/pickban/draft-server/internal/snapshot"
)

var ErrRoomExists = errors.New("room already exists")
var ErrRoomNotFound = errors.New("room not found")

type Msg interface{ isRegistryMsg() }

type Create struct {
	Code  string
	Reply chan CreateReply
}

type CreateReply struct {
	Room *room.Room
	Err  error
}

type Get struct {
	Code  string
	Reply chan *room.Room
}

type Remove struct{ Code string }

type List struct {
	Reply chan []*room.Room
}

type Shutdown struct{}

func (Create) isRegistryMsg()   {}
func (Get) isRegistryMsg()      {}
func (Remove) isRegistryMsg()   {}
func (List) isRegistryMsg()     {}
func (Shutdown) isRegistryMsg() {}

type Config struct {
	Script         draft.Script
	Roster         []int
	StartCountdown time.Duration
	ActionTimeout  time.Duration
	GracePeriod    time.Duration
	Store          *snapshot.Store
	Log            *zap.Logger
}

// Registry owns the code -> room map. Creation and deletion are serialized
// through its goroutine; rooms themselves run independently, so two drafts
// never contend with each other.
type Registry struct {
	cfg    Config
	inbox  chan Msg
	rooms  map[string]*room.Room
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, cfg Config) *Registry {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	reg := &Registry{
		cfg:    cfg,
		inbox:  make(chan Msg, 64),
		rooms:  make(map[string]*room.Room),
		ctx:    ctx,
		cancel: cancel,
	}
	go reg.loop()
	return reg
}

func (reg *Registry) Inbox() chan<- Msg { return reg.inbox }

func (reg *Registry) loop() {
	for {
		select {
		case <-reg.ctx.Done():
			reg.shutdown()
			return

		case m := <-reg.inbox:
			switch msg := m.(type) {
			case Create:
				if _, ok := reg.rooms[msg.Code]; ok {
					msg.Reply <- CreateReply{Err: ErrRoomExists}
					break
				}
				rm := room.New(reg.ctx, room.Config{
					Code:           msg.Code,
					Script:         reg.cfg.Script,
					Roster:         reg.cfg.Roster,
					StartCountdown: reg.cfg.StartCountdown,
					ActionTimeout:  reg.cfg.ActionTimeout,
					GracePeriod:    reg.cfg.GracePeriod,
					OnRemove:       reg.scheduleRemove,
					Store:          reg.cfg.Store,
					Log:            reg.cfg.Log,
				})
				reg.rooms[msg.Code] = rm
				reg.cfg.Log.Info("room created", zap.String("code", msg.Code))
				msg.Reply <- CreateReply{Room: rm}

			case Get:
				msg.Reply <- reg.rooms[msg.Code]

			case Remove:
				if _, ok := reg.rooms[msg.Code]; ok {
					delete(reg.rooms, msg.Code)
					reg.cfg.Log.Info("room removed", zap.String("code", msg.Code))
				}

			case List:
				all := make([]*room.Room, 0, len(reg.rooms))
				for _, rm := range reg.rooms {
					all = append(all, rm)
				}
				msg.Reply <- all

			case Shutdown:
				reg.shutdown()
				return
			}
		}
	}
}

// scheduleRemove is handed to each room; it runs on the room goroutine, so
// it must only post, never touch the map.
func (reg *Registry) scheduleRemove(code string) {
	select {
	case reg.inbox <- Remove{Code: code}:
	case <-reg.ctx.Done():
	}
}

func (reg *Registry) shutdown() {
	// Rooms run under reg.ctx; cancelling is enough to stop every loop and
	// close every client outbox.
	clear(reg.rooms)
	reg.cancel()
}
