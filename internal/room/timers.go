package room

import (
	"time"

	"go.uber.org/zap"

	"github.com/pickban/draft-server/internal/draft"
)

type timerKind int

const (
	timerStart timerKind = iota
	timerAction
	timerGrace
)

// timerFired re-enters the room loop so expirations run under the same
// serialization as client requests. The generation stamps stale fires: any
// re-arm or cancel bumps the counter, and an old goroutine's message is
// discarded on arrival.
type timerFired struct {
	kind timerKind
	gen  uint64
}

func (r *Room) post(m Msg) {
	select {
	case r.inbox <- m:
	case <-r.ctx.Done():
	}
}

// maybeArmStart arms the pre-draft countdown once both seats are occupied.
func (r *Room) maybeArmStart() {
	if r.started || r.left == nil || r.right == nil || r.startTimer != nil {
		return
	}
	r.startGen++
	gen := r.startGen
	r.startTimer = time.AfterFunc(r.cfg.StartCountdown, func() {
		r.post(timerFired{kind: timerStart, gen: gen})
	})
}

func (r *Room) cancelStart() {
	if r.startTimer != nil {
		r.startTimer.Stop()
		r.startTimer = nil
	}
	r.startGen++
}

func (r *Room) armAction() {
	if r.actionTimer != nil {
		r.actionTimer.Stop()
	}
	r.actionGen++
	gen := r.actionGen
	r.actionTimer = time.AfterFunc(r.cfg.ActionTimeout, func() {
		r.post(timerFired{kind: timerAction, gen: gen})
	})
}

func (r *Room) cancelAction() {
	if r.actionTimer != nil {
		r.actionTimer.Stop()
		r.actionTimer = nil
	}
	r.actionGen++
}

func (r *Room) armGrace() {
	if r.graceTimer != nil {
		r.graceTimer.Stop()
	}
	r.graceGen++
	gen := r.graceGen
	r.graceTimer = time.AfterFunc(r.cfg.GracePeriod, func() {
		r.post(timerFired{kind: timerGrace, gen: gen})
	})
}

func (r *Room) cancelGrace() {
	if r.graceTimer != nil {
		r.graceTimer.Stop()
		r.graceTimer = nil
	}
	r.graceGen++
}

// handleTimer runs inside the room loop. A grace-period teardown sets
// r.stopped, which the loop checks after every message.
func (r *Room) handleTimer(t timerFired) {
	switch t.kind {
	case timerStart:
		if t.gen != r.startGen || r.started {
			return
		}
		r.startTimer = nil
		if r.left == nil || r.right == nil {
			return
		}
		r.cfg.Log.Info("draft started", zap.String("code", r.cfg.Code))
		r.started = true
		r.armAction()

	case timerAction:
		if t.gen != r.actionGen || !r.started {
			return
		}
		r.actionTimer = nil
		if r.cfg.Script.Terminal(r.state) {
			return
		}
		next, heroID, err := draft.ApplyAuto(r.cfg.Script, r.state, r.cfg.Roster)
		if err != nil {
			return
		}
		r.cfg.Log.Info("action timed out, auto-resolved",
			zap.String("code", r.cfg.Code), zap.Int("heroId", heroID))
		r.state = next
		r.afterMutation()

	case timerGrace:
		if t.gen != r.graceGen {
			return
		}
		r.graceTimer = nil
		if !r.empty() {
			return
		}
		r.cfg.Log.Info("empty room expired", zap.String("code", r.cfg.Code))
		if r.cfg.OnRemove != nil {
			r.cfg.OnRemove(r.cfg.Code)
		}
		r.shutdown()
	}
}
