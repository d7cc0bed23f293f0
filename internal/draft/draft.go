package draft

import (
	"errors"
	"math/rand"
	"slices"
)

var ErrInvalidPhase = errors.New("draft already completed")
var ErrWrongTurn = errors.New("invalid turn")
var ErrAlreadyResolved = errors.New("hero already banned or picked")

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

type Action string

const (
	ActionBan  Action = "ban"
	ActionPick Action = "pick"
)

// Phase is one scripted draft step: which side acts, whether it bans or
// picks, and how many actions complete the step.
type Phase struct {
	Ordinal int
	Side    Side
	Action  Action
	Count   int
	Label   string
}

// Script is the fixed ordered phase sequence shared by every room.
type Script []Phase

// State is the full draft snapshot. The JSON shape is the wire shape, so
// the four lists are always non-nil (they marshal as [] rather than null).
type State struct {
	CurrentPhase int   `json:"currentPhase"`
	ActionCount  int   `json:"actionCount"`
	LeftBans     []int `json:"leftBans"`
	RightBans    []int `json:"rightBans"`
	LeftPicks    []int `json:"leftPicks"`
	RightPicks   []int `json:"rightPicks"`
}

func NewState() State {
	return State{
		LeftBans:   []int{},
		RightBans:  []int{},
		LeftPicks:  []int{},
		RightPicks: []int{},
	}
}

// PhaseAt returns the active phase, or ok=false once the draft is terminal.
func (sc Script) PhaseAt(s State) (Phase, bool) {
	if s.CurrentPhase >= len(sc) {
		return Phase{}, false
	}
	return sc[s.CurrentPhase], true
}

func (sc Script) Terminal(s State) bool {
	return s.CurrentPhase >= len(sc)
}

// Resolved reports whether the hero already sits in any of the four lists.
func (s State) Resolved(heroID int) bool {
	return slices.Contains(s.LeftBans, heroID) ||
		slices.Contains(s.RightBans, heroID) ||
		slices.Contains(s.LeftPicks, heroID) ||
		slices.Contains(s.RightPicks, heroID)
}

func (s State) clone() State {
	s.LeftBans = slices.Clone(s.LeftBans)
	s.RightBans = slices.Clone(s.RightBans)
	s.LeftPicks = slices.Clone(s.LeftPicks)
	s.RightPicks = slices.Clone(s.RightPicks)
	return s
}

// advance counts one completed action and rolls to the next phase when the
// step's quota is met.
func (s *State) advance(phase Phase) {
	s.ActionCount++
	if s.ActionCount >= phase.Count {
		s.CurrentPhase++
		s.ActionCount = 0
	}
}

// Apply validates and applies one manual ban/pick. On error the input state
// is returned untouched; validation always precedes mutation.
func Apply(script Script, s State, side Side, heroID int) (State, error) {
	phase, ok := script.PhaseAt(s)
	if !ok {
		return s, ErrInvalidPhase
	}
	if side != phase.Side {
		return s, ErrWrongTurn
	}
	if s.Resolved(heroID) {
		return s, ErrAlreadyResolved
	}

	next := s.clone()
	switch {
	case phase.Side == SideLeft && phase.Action == ActionBan:
		next.LeftBans = append(next.LeftBans, heroID)
	case phase.Side == SideRight && phase.Action == ActionBan:
		next.RightBans = append(next.RightBans, heroID)
	case phase.Side == SideLeft && phase.Action == ActionPick:
		next.LeftPicks = append(next.LeftPicks, heroID)
	case phase.Side == SideRight && phase.Action == ActionPick:
		next.RightPicks = append(next.RightPicks, heroID)
	}
	next.advance(phase)
	return next, nil
}

// ApplyAuto resolves a timed-out action by choosing uniformly at random
// from the unresolved part of pool. With the pool drained the phase still
// advances, with no list mutation, so the draft cannot stall. The chosen
// hero ID is returned, or -1 when nothing was appended.
func ApplyAuto(script Script, s State, pool []int) (State, int, error) {
	phase, ok := script.PhaseAt(s)
	if !ok {
		return s, -1, ErrInvalidPhase
	}

	avail := make([]int, 0, len(pool))
	for _, id := range pool {
		if !s.Resolved(id) {
			avail = append(avail, id)
		}
	}
	if len(avail) == 0 {
		next := s.clone()
		next.advance(phase)
		return next, -1, nil
	}

	heroID := avail[rand.Intn(len(avail))]
	next, err := Apply(script, s, phase.Side, heroID)
	if err != nil {
		return s, -1, err
	}
	return next, heroID, nil
}
