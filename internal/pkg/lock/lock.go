// Package lock provides per-game locking so that every ledger operation
// runs exclusively against the one game it addresses. Operations never
// hold two game locks at once, which rules out deadlock by construction.
package lock

import "sync"

// GameLock serializes operations per game id.
type GameLock struct {
	locks sync.Map // map[int64]*sync.Mutex
}

// NewGameLock creates a new GameLock instance.
func NewGameLock() *GameLock {
	return &GameLock{}
}

func (gl *GameLock) get(gameID int64) *sync.Mutex {
	if v, ok := gl.locks.Load(gameID); ok {
		return v.(*sync.Mutex)
	}
	v, _ := gl.locks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Lock acquires the lock for a game.
func (gl *GameLock) Lock(gameID int64) {
	gl.get(gameID).Lock()
}

// Unlock releases the lock for a game.
func (gl *GameLock) Unlock(gameID int64) {
	if v, ok := gl.locks.Load(gameID); ok {
		v.(*sync.Mutex).Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (gl *GameLock) TryLock(gameID int64) bool {
	return gl.get(gameID).TryLock()
}

// WithLock executes fn while holding the game's lock.
func (gl *GameLock) WithLock(gameID int64, fn func() error) error {
	gl.Lock(gameID)
	defer gl.Unlock(gameID)
	return fn()
}
