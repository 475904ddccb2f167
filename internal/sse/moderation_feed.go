package sse

import (
	"context"
	"sync"

	"ms-gallery/internal/models"
)

// ModerationFeed fans gallery events out to connected admin consoles. Clients
// either follow everything or a single gallery event.
type ModerationFeed struct {
	mu           sync.RWMutex
	allClients   []chan models.GalleryEvent
	eventClients map[string][]chan models.GalleryEvent
	buffer       int
}

func NewModerationFeed() *ModerationFeed {
	return &ModerationFeed{
		eventClients: make(map[string][]chan models.GalleryEvent),
		buffer:       16,
	}
}

// Subscribe registers a client until ctx is done. An empty eventID follows every event.
func (f *ModerationFeed) Subscribe(ctx context.Context, eventID string) <-chan models.GalleryEvent {
	clientChan := make(chan models.GalleryEvent, f.buffer)

	f.mu.Lock()
	if eventID == "" {
		f.allClients = append(f.allClients, clientChan)
	} else {
		f.eventClients[eventID] = append(f.eventClients[eventID], clientChan)
	}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.remove(eventID, clientChan)
	}()

	return clientChan
}

// Emit broadcasts without blocking; a client with a full buffer misses the event.
func (f *ModerationFeed) Emit(event models.GalleryEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, clientChan := range f.allClients {
		send(clientChan, event)
	}
	if event.EventID != "" {
		for _, clientChan := range f.eventClients[event.EventID] {
			send(clientChan, event)
		}
	}
}

// Publish lets the feed sit next to the message bus as a publisher. It never fails.
func (f *ModerationFeed) Publish(ctx context.Context, event models.GalleryEvent) error {
	if event.Type == models.GalleryEventLikeToggled {
		return nil
	}
	f.Emit(event)
	return nil
}

func (f *ModerationFeed) ClientCount(eventID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if eventID == "" {
		return len(f.allClients)
	}
	return len(f.eventClients[eventID])
}

func (f *ModerationFeed) remove(eventID string, clientChan chan models.GalleryEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if eventID == "" {
		f.allClients = without(f.allClients, clientChan)
	} else {
		f.eventClients[eventID] = without(f.eventClients[eventID], clientChan)
		if len(f.eventClients[eventID]) == 0 {
			delete(f.eventClients, eventID)
		}
	}
	close(clientChan)
}

func send(clientChan chan models.GalleryEvent, event models.GalleryEvent) {
	select {
	case clientChan <- event:
	default:
	}
}

func without(clients []chan models.GalleryEvent, target chan models.GalleryEvent) []chan models.GalleryEvent {
	for i, ch := range clients {
		if ch == target {
			return append(clients[:i], clients[i+1:]...)
		}
	}
	return clients
}
