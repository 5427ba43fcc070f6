package watchtower

import "github.com/go-errors/errors"

var (
	// ErrTowerStopped is returned by any binding operation attempted
	// after Stop has been called.
	ErrTowerStopped = errors.New("watchtower binding stopped")

	// ErrIndexOverlap names a watch index inside the factory range
	// reserved at NewTower time. No Tower method returns it: SetChannel
	// accepts any index, factory indices included.
	ErrIndexOverlap = errors.New("watch index overlaps factory channel range")

	// ErrNoSuchEntry names a watch index with no bound channel. No Tower
	// method returns it: Watch records entries for unbound indices, and
	// RemoveChannel on an unbound index succeeds.
	ErrNoSuchEntry = errors.New("no channel bound at watch index")
)
