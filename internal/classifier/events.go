package classifier

import (
	"sync"
	"time"

	"prodclass/pkg/types"
)

// Event names published by the Classifier.
const (
	EventModelLoaded     = "model_loaded"
	EventModelLoadFailed = "model_load_failed"
	EventClassifyDone    = "classify_done"
	EventClassifyError   = "classify_error"
	EventBatchDone       = "batch_done"
	EventBatchError      = "batch_error"
)

// Event is a classifier lifecycle event. Results is set for classification
// events, in input order.
type Event struct {
	Name    string
	Model   string
	Results []types.Result
	Elapsed time.Duration
	Fields  map[string]any
}

// EventPublisher receives events from the classifier. Implementations should
// be lightweight; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
