package jitchannel

import (
	"context"

	"github.com/lightninglabs/superscalar/chain"
	"github.com/lightningnetwork/lnd/ticker"
)

// ConfirmationSweeper drives CheckFunding on every tick of t until Stop is
// called, the resumable polling loop component E's own tests exercise with
// a ticker.Force instead of a live ticker.Default.
type ConfirmationSweeper struct {
	store   *Store
	backend chain.Backend
	depth   uint32
	ticker  ticker.Ticker
	quit    chan struct{}
}

// NewConfirmationSweeper builds a sweeper over store using t as its clock.
func NewConfirmationSweeper(store *Store, backend chain.Backend, depth uint32,
	t ticker.Ticker) *ConfirmationSweeper {

	return &ConfirmationSweeper{
		store:   store,
		backend: backend,
		depth:   depth,
		ticker:  t,
		quit:    make(chan struct{}),
	}
}

// Start resumes the ticker and runs the sweep loop in its own goroutine.
func (s *ConfirmationSweeper) Start() {
	s.ticker.Resume()
	go s.run()
}

// Stop pauses the ticker and ends the sweep loop.
func (s *ConfirmationSweeper) Stop() {
	close(s.quit)
	s.ticker.Stop()
}

func (s *ConfirmationSweeper) run() {
	for {
		select {
		case <-s.ticker.Ticks():
			advanced, err := CheckFunding(context.Background(), s.store, s.backend, s.depth)
			if err != nil {
				log.Errorf("confirmation sweep: %v", err)
				continue
			}
			if advanced > 0 {
				log.Infof("%d jit channel(s) advanced to OPEN", advanced)
			}
		case <-s.quit:
			return
		}
	}
}
