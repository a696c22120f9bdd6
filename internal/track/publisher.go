package track

import (
	"sync"
	"time"

	"github.com/example/sharego/internal/geo"
	"github.com/example/sharego/internal/models"
)

// Sink receives the position pushed to a subscriber each tick.
type Sink interface {
	Send(subscriberID string, u models.LocationUpdate) error
}

// Publisher pushes the tracked party's latest position to a subscriber on a
// fixed interval. One watch per subscriber; starting a new watch for the
// same subscriber replaces the old one, and Stop ends it when the ride is
// over or the subscriber disconnects.
type Publisher struct {
	Locations geo.Locations
	Sink      Sink
	Interval  time.Duration

	mu      sync.Mutex
	watches map[string]chan struct{}
}

func NewPublisher(locations geo.Locations, sink Sink, interval time.Duration) *Publisher {
	return &Publisher{
		Locations: locations,
		Sink:      sink,
		Interval:  interval,
		watches:   make(map[string]chan struct{}),
	}
}

// Watch starts pushing targetID's position to subscriberID.
func (p *Publisher) Watch(subscriberID, targetID string) {
	p.mu.Lock()
	if old, ok := p.watches[subscriberID]; ok {
		close(old)
	}
	stop := make(chan struct{})
	p.watches[subscriberID] = stop
	p.mu.Unlock()

	go p.run(subscriberID, targetID, stop)
}

// Stop ends the subscriber's watch if one is active.
func (p *Publisher) Stop(subscriberID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stop, ok := p.watches[subscriberID]; ok {
		close(stop)
		delete(p.watches, subscriberID)
	}
}

// drop removes the watch only if it still owns the given stop channel, so a
// dying goroutine cannot tear down a replacement watch.
func (p *Publisher) drop(subscriberID string, stop <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.watches[subscriberID]; ok && (<-chan struct{})(cur) == stop {
		delete(p.watches, subscriberID)
	}
}

func (p *Publisher) run(subscriberID, targetID string, stop <-chan struct{}) {
	t := time.NewTicker(p.Interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			u, ok := p.Locations.Lookup(targetID)
			if !ok {
				continue
			}
			if err := p.Sink.Send(subscriberID, u); err != nil {
				// subscriber gone; the watch dies with it
				p.drop(subscriberID, stop)
				return
			}
		}
	}
}
