package ledger

import (
	"fmt"

	"github.com/globalfoundation/gnf/dispatch"
	"github.com/globalfoundation/gnf/exception"
	"github.com/globalfoundation/gnf/fees"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/transaction"
)

// Session is a speculative view of the next block over the committed head. Nothing done
// in a session is ever persisted; inclusion re-checks everything against real state.
type Session struct {
	dispatcher *dispatch.Dispatcher
	overlay    *state.Overlay
	pot        *fees.Pot
}

// NewSession opens a session positioned at the start of the block after the head.
func (l *Ledger) NewSession() (*Session, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.head == nil {
		return nil, ErrNotInitialized
	}
	overlay := state.NewOverlay(l.stores.State)
	if err := l.initializeBlock(state.NewView(overlay), l.head.Header.Number+1, l.head.Hash()); err != nil {
		return nil, err
	}
	return &Session{dispatcher: l.dispatcher, overlay: overlay, pot: fees.NewPot()}, nil
}

// CopyWithOverlayClone forks the session; the copy sees every write made so far but its
// own writes stay private.
func (s *Session) CopyWithOverlayClone() *Session {
	return &Session{dispatcher: s.dispatcher, overlay: s.overlay.Clone(), pot: fees.NewPot()}
}

// Validate checks x for the pool without changing the session.
func (s *Session) Validate(x *transaction.Extrinsic, source dispatch.Source) (dispatch.Validity, error) {
	return s.dispatcher.Validate(x, source, state.NewView(s.overlay))
}

// FilterValid applies each candidate in order and keeps those that would be included, so
// later candidates observe the effects of earlier ones. The second result holds the
// rejection reason of every dropped candidate, keyed by its position.
func (s *Session) FilterValid(raws [][]byte) ([][]byte, map[int]error) {
	view := state.NewView(s.overlay)
	valid := make([][]byte, 0, len(raws))
	rejected := make(map[int]error)
	for i, raw := range raws {
		x, err := transaction.Decode(raw)
		if err != nil {
			rejected[i] = fmt.Errorf("decode: %w", err)
			continue
		}
		depth := s.overlay.Depth()
		err = exception.Guard("filter extrinsic", func() error {
			_, applyErr := s.dispatcher.Apply(x, view, s.pot)
			return applyErr
		})
		for s.overlay.Depth() > depth {
			_ = s.overlay.Rollback()
		}
		if err != nil {
			rejected[i] = err
			continue
		}
		valid = append(valid, raw)
	}
	return valid, rejected
}
