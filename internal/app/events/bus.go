package events

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

// EmergencyAlert is raised on every Severe Risk submission of a signed-in user.
const EmergencyAlert = "emergency-alert"

type Event struct {
	Name        string
	DiagnosisID domain.DiagnosisID
	UserID      domain.UserID
	Label       domain.RiskLabel
	At          time.Time
}

type Handler func(ctx context.Context, ev Event)

// Bus is an in-process, fire-and-forget notification bus. Each handler runs
// on its own goroutine; Publish never waits for handlers.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[int]Handler)}
}

// Subscribe registers h for events named name.
func (b *Bus) Subscribe(name string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[name] == nil {
		b.handlers[name] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[name][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[name], id)
		})
	}
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[ev.Name]))
	for _, h := range b.handlers[ev.Name] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	// handlers outlive the publishing call
	hctx := context.WithoutCancel(ctx)
	for _, h := range hs {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					observability.LoggerFromContext(hctx).Error("event handler panicked",
						"event", ev.Name, "panic", r)
				}
			}()
			h(hctx, ev)
		}(h)
	}
}

// Wait blocks until every handler started so far has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}
