package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pickban/draft-server/internal/draft"
	"github.com/pickban/draft-server/internal/snapshot"
	"github.com/pickban/draft-server/internal/types"
)

var ErrSlotTaken = errors.New("player slot already taken")
var ErrClosed = errors.New("room closed")

// Client is one connected participant as the room sees it: an ID and a
// buffered outbox the room fans events into. The room is the only sender
// and the only closer of the outbox.
type Client struct {
	ID     string
	Outbox chan types.ServerMessage
}

type Msg interface{ isRoomMsg() }

type Join struct {
	Client  *Client
	Side    draft.Side
	AsOwner bool
	Reply   chan JoinReply
}

type JoinReply struct {
	State draft.State
	Err   error
}

type Spectate struct {
	Client *Client
	Reply  chan draft.State
}

type Leave struct{ ClientID string }

type Act struct {
	Side   draft.Side
	HeroID int
	Reply  chan ActReply
}

type ActReply struct {
	State draft.State
	Err   error
}

type Reset struct{}

type Overwrite struct{ State draft.State }

type GetState struct{ Reply chan draft.State }

type GetInfo struct{ Reply chan Info }

// Info is the occupancy view backing capacity checks and room listings.
type Info struct {
	Code       string
	HasLeft    bool
	HasRight   bool
	Spectators int
	CreatedAt  time.Time
}

type Shutdown struct{}

func (Join) isRoomMsg()       {}
func (Spectate) isRoomMsg()   {}
func (Leave) isRoomMsg()      {}
func (Act) isRoomMsg()        {}
func (Reset) isRoomMsg()      {}
func (Overwrite) isRoomMsg()  {}
func (GetState) isRoomMsg()   {}
func (GetInfo) isRoomMsg()    {}
func (Shutdown) isRoomMsg()   {}
func (timerFired) isRoomMsg() {}

type Config struct {
	Code           string
	Script         draft.Script
	Roster         []int
	StartCountdown time.Duration
	ActionTimeout  time.Duration
	GracePeriod    time.Duration
	OnRemove       func(code string) // invoked once when the room should leave the registry
	Store          *snapshot.Store
	Log            *zap.Logger
}

// Room is one draft session. A single goroutine owns all mutable fields;
// everything arrives through the inbox, including timer expirations, so an
// expiring timer and an in-flight manual action can never race.
type Room struct {
	cfg   Config
	inbox chan Msg

	state      draft.State
	started    bool
	stopped    bool
	left       *Client
	right      *Client
	spectators map[string]*Client
	ownerID    string
	ownerSide  string
	createdAt  time.Time

	startTimer  *time.Timer
	actionTimer *time.Timer
	graceTimer  *time.Timer
	startGen    uint64
	actionGen   uint64
	graceGen    uint64

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, cfg Config) *Room {
	if cfg.Script == nil {
		cfg.Script = draft.DefaultScript
	}
	if cfg.Roster == nil {
		cfg.Roster = draft.DefaultRoster
	}
	if cfg.StartCountdown <= 0 {
		cfg.StartCountdown = 10 * time.Second
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 60 * time.Second
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 5 * time.Minute
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		cfg:        cfg,
		inbox:      make(chan Msg, 64),
		state:      draft.NewState(),
		spectators: make(map[string]*Client),
		createdAt:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- r.handleJoin(msg.Client, msg.Side, msg.AsOwner)

			case Spectate:
				r.cancelGrace()
				r.spectators[msg.Client.ID] = msg.Client
				msg.Reply <- r.state

			case Leave:
				r.handleLeave(msg.ClientID)

			case Act:
				msg.Reply <- r.handleAct(msg.Side, msg.HeroID)

			case Reset:
				// A reset rewinds the whole session: the draft is no longer
				// started and the pre-draft countdown re-arms if both seats
				// are still occupied.
				r.state = draft.NewState()
				r.started = false
				r.afterMutation()
				r.cancelStart()
				r.maybeArmStart()

			case Overwrite:
				r.state = normalize(msg.State)
				r.afterMutation()

			case GetState:
				msg.Reply <- r.state

			case GetInfo:
				msg.Reply <- Info{
					Code:       r.cfg.Code,
					HasLeft:    r.left != nil,
					HasRight:   r.right != nil,
					Spectators: len(r.spectators),
					CreatedAt:  r.createdAt,
				}

			case timerFired:
				r.handleTimer(msg)

			case Shutdown:
				r.shutdown()
			}

			// A teardown can happen deep inside a handler (an owner dropped
			// as a slow client mid-broadcast); never serve another message
			// against a dead room.
			if r.stopped {
				return
			}
		}
	}
}

func (r *Room) handleJoin(c *Client, side draft.Side, asOwner bool) JoinReply {
	switch side {
	case draft.SideLeft:
		if r.left != nil {
			return JoinReply{Err: ErrSlotTaken}
		}
		r.left = c
	case draft.SideRight:
		if r.right != nil {
			return JoinReply{Err: ErrSlotTaken}
		}
		r.right = c
	default:
		return JoinReply{Err: ErrSlotTaken}
	}

	if asOwner {
		r.ownerID = c.ID
		r.ownerSide = string(side)
		r.cfg.Store.Save(r.cfg.Code, r.ownerSide, r.state)
	}
	r.cancelGrace()

	// The joiner gets its ack from the session layer; everyone else hears
	// about the join here.
	r.broadcast(types.ServerMessage{Type: "player-joined", Side: string(side), RoomState: r.snap()}, c.ID)
	if r.stopped {
		// The broadcast dropped the owner and tore the room down; the seat
		// just handed out is already gone.
		return JoinReply{Err: ErrClosed}
	}
	r.maybeArmStart()
	return JoinReply{State: r.state}
}

// handleLeave clears whatever seat the connection held. An owner departure
// tears the whole room down (r.stopped tells the loop to exit).
func (r *Room) handleLeave(clientID string) {
	if r.ownerID != "" && clientID == r.ownerID {
		r.cfg.Log.Info("owner left, closing room", zap.String("code", r.cfg.Code))
		r.broadcast(types.ServerMessage{Type: "room-closed", RoomCode: r.cfg.Code}, clientID)
		r.cfg.Store.Delete(r.cfg.Code)
		if r.cfg.OnRemove != nil {
			r.cfg.OnRemove(r.cfg.Code)
		}
		r.shutdown()
		return
	}

	var side string
	switch {
	case r.left != nil && r.left.ID == clientID:
		close(r.left.Outbox)
		r.left = nil
		side = "left"
	case r.right != nil && r.right.ID == clientID:
		close(r.right.Outbox)
		r.right = nil
		side = "right"
	default:
		c, ok := r.spectators[clientID]
		if !ok {
			return // already gone
		}
		close(c.Outbox)
		delete(r.spectators, clientID)
		side = "spectator"
	}

	r.broadcast(types.ServerMessage{Type: "player-left", Side: side, RoomState: r.snap()}, clientID)
	if r.stopped {
		return
	}

	// A half-empty room cannot start; the countdown restarts from full
	// duration once both seats are occupied again.
	if !r.started && (r.left == nil || r.right == nil) {
		r.cancelStart()
	}
	if r.empty() {
		r.armGrace()
	}
}

func (r *Room) handleAct(side draft.Side, heroID int) ActReply {
	next, err := draft.Apply(r.cfg.Script, r.state, side, heroID)
	if err != nil {
		return ActReply{State: r.state, Err: err}
	}
	r.state = next
	r.afterMutation()
	return ActReply{State: r.state}
}

// afterMutation is the shared tail of every accepted state change: fan out,
// persist, and re-arm or disarm the action countdown.
func (r *Room) afterMutation() {
	r.broadcast(types.ServerMessage{Type: "state-updated", RoomState: r.snap()}, "")
	if r.stopped {
		// Dropping the owner mid-broadcast tore the room down; a dead room
		// must not persist state or re-arm its action timer.
		return
	}
	r.cfg.Store.Save(r.cfg.Code, r.ownerSide, r.state)

	if r.started && !r.cfg.Script.Terminal(r.state) {
		r.armAction()
	} else {
		r.cancelAction()
	}
}

func (r *Room) empty() bool {
	return r.left == nil && r.right == nil && len(r.spectators) == 0
}

func (r *Room) snap() *draft.State {
	s := r.state
	return &s
}

// broadcast delivers to both players and every spectator, skipping
// excludeID. A full outbox means a slow or dead client; it is removed
// through the ordinary leave path rather than blocking the room.
func (r *Room) broadcast(msg types.ServerMessage, excludeID string) {
	var dropped []string
	deliver := func(c *Client) {
		if c == nil || c.ID == excludeID {
			return
		}
		select {
		case c.Outbox <- msg:
		default:
			r.cfg.Log.Warn("dropping slow client",
				zap.String("code", r.cfg.Code), zap.String("client", c.ID))
			dropped = append(dropped, c.ID)
		}
	}

	deliver(r.left)
	deliver(r.right)
	for _, c := range r.spectators {
		deliver(c)
	}

	for _, id := range dropped {
		r.handleLeave(id)
	}
}

func (r *Room) shutdown() {
	r.stopped = true
	r.cancelStart()
	r.cancelAction()
	r.cancelGrace()
	if r.left != nil {
		close(r.left.Outbox)
		r.left = nil
	}
	if r.right != nil {
		close(r.right.Outbox)
		r.right = nil
	}
	for id, c := range r.spectators {
		close(c.Outbox)
		delete(r.spectators, id)
	}
	r.cancel()
}

func normalize(s draft.State) draft.State {
	if s.LeftBans == nil {
		s.LeftBans = []int{}
	}
	if s.RightBans == nil {
		s.RightBans = []int{}
	}
	if s.LeftPicks == nil {
		s.LeftPicks = []int{}
	}
	if s.RightPicks == nil {
		s.RightPicks = []int{}
	}
	return s
}
