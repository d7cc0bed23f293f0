package room

import "github.com/pickban/draft-server/internal/draft"

// The helpers below wrap the inbox round-trip for callers outside the room
// goroutine. Every send and receive also watches ctx so a caller can never
// hang on a room that was torn down mid-request.

func (r *Room) JoinSync(c *Client, side draft.Side, asOwner bool) (draft.State, error) {
	reply := make(chan JoinReply, 1)
	if !r.send(Join{Client: c, Side: side, AsOwner: asOwner, Reply: reply}) {
		return draft.State{}, ErrClosed
	}
	select {
	case res := <-reply:
		return res.State, res.Err
	case <-r.ctx.Done():
		return draft.State{}, ErrClosed
	}
}

func (r *Room) SpectateSync(c *Client) (draft.State, error) {
	reply := make(chan draft.State, 1)
	if !r.send(Spectate{Client: c, Reply: reply}) {
		return draft.State{}, ErrClosed
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.ctx.Done():
		return draft.State{}, ErrClosed
	}
}

func (r *Room) LeaveSync(clientID string) {
	r.send(Leave{ClientID: clientID})
}

func (r *Room) ActSync(side draft.Side, heroID int) (draft.State, error) {
	reply := make(chan ActReply, 1)
	if !r.send(Act{Side: side, HeroID: heroID, Reply: reply}) {
		return draft.State{}, ErrClosed
	}
	select {
	case res := <-reply:
		return res.State, res.Err
	case <-r.ctx.Done():
		return draft.State{}, ErrClosed
	}
}

func (r *Room) ResetSync() bool {
	return r.send(Reset{})
}

func (r *Room) OverwriteSync(s draft.State) bool {
	return r.send(Overwrite{State: s})
}

func (r *Room) StateSync() (draft.State, error) {
	reply := make(chan draft.State, 1)
	if !r.send(GetState{Reply: reply}) {
		return draft.State{}, ErrClosed
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.ctx.Done():
		return draft.State{}, ErrClosed
	}
}

func (r *Room) InfoSync() (Info, error) {
	reply := make(chan Info, 1)
	if !r.send(GetInfo{Reply: reply}) {
		return Info{}, ErrClosed
	}
	select {
	case info := <-reply:
		return info, nil
	case <-r.ctx.Done():
		return Info{}, ErrClosed
	}
}

func (r *Room) send(m Msg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}
