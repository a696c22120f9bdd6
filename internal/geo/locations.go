package geo

import (
	"sync"
	"time"

	"github.com/example/sharego/internal/models"
)

// Locations tracks the latest reported position per party on an active ride.
type Locations interface {
	Upsert(u models.LocationUpdate)
	Lookup(partyID string) (models.LocationUpdate, bool)
}

type LocationIndex struct {
	mu      sync.RWMutex
	parties map[string]models.LocationUpdate
}

func NewLocationIndex() *LocationIndex {
	return &LocationIndex{parties: make(map[string]models.LocationUpdate)}
}

func (l *LocationIndex) Upsert(u models.LocationUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u.Updated.IsZero() {
		u.Updated = time.Now()
	}
	l.parties[u.PartyID] = u
}

func (l *LocationIndex) Lookup(partyID string) (models.LocationUpdate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.parties[partyID]
	return u, ok
}
