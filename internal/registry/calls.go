package registry

import "github.com/pickban/draft-server/internal/room"

// CreateSync registers a new room under code, or fails with ErrRoomExists.
func (reg *Registry) CreateSync(code string) (*room.Room, error) {
	reply := make(chan CreateReply, 1)
	if !reg.send(Create{Code: code, Reply: reply}) {
		return nil, ErrRoomNotFound
	}
	select {
	case res := <-reply:
		return res.Room, res.Err
	case <-reg.ctx.Done():
		return nil, ErrRoomNotFound
	}
}

// GetSync returns the live room for code, or ErrRoomNotFound.
func (reg *Registry) GetSync(code string) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	if !reg.send(Get{Code: code, Reply: reply}) {
		return nil, ErrRoomNotFound
	}
	select {
	case rm := <-reply:
		if rm == nil {
			return nil, ErrRoomNotFound
		}
		return rm, nil
	case <-reg.ctx.Done():
		return nil, ErrRoomNotFound
	}
}

// ListSync snapshots the live rooms. Occupancy is queried per room by the
// caller so the registry loop never waits on a room loop.
func (reg *Registry) ListSync() []*room.Room {
	reply := make(chan []*room.Room, 1)
	if !reg.send(List{Reply: reply}) {
		return nil
	}
	select {
	case all := <-reply:
		return all
	case <-reg.ctx.Done():
		return nil
	}
}

// Capacity reports slot occupancy for a code; a missing room is reported as
// exists=false with both slots empty, distinct from an existing empty room.
func (reg *Registry) Capacity(code string) (exists, hasLeft, hasRight bool) {
	rm, err := reg.GetSync(code)
	if err != nil {
		return false, false, false
	}
	info, err := rm.InfoSync()
	if err != nil {
		return false, false, false
	}
	return true, info.HasLeft, info.HasRight
}

func (reg *Registry) send(m Msg) bool {
	select {
	case reg.inbox <- m:
		return true
	case <-reg.ctx.Done():
		return false
	}
}
