package hook

import (
	"fmt"

	"liquidityLaunch/internal/model"
)

// guard marks pools whose reconciler is inside a nested engine call.
type guard struct {
	active map[model.PoolID]struct{}
}

func newGuard() *guard {
	return &guard{active: make(map[model.PoolID]struct{})}
}

func (g *guard) held(id model.PoolID) bool {
	_, ok := g.active[id]
	return ok
}

// enter marks id busy. The returned release must run on every exit path.
func (g *guard) enter(id model.PoolID) (func(), error) {
	if g.held(id) {
		return nil, fmt.Errorf("%w: pool %s", ErrReentrant, id.Hex())
	}
	g.active[id] = struct{}{}
	return func() { delete(g.active, id) }, nil
}
