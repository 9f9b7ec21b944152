// Package notifier provides a topic-filtered broadcast mechanism for change
// pings.
//
// Listeners receive a ping on their channel when something they subscribed to
// changed, then call Take to learn which topics fired and re-read the state
// they care about. Pings coalesce: a slow listener sees one ping carrying the
// union of every topic broadcast since its last Take.
package notifier

import "sync"

// Topic is a bit set of change kinds.
type Topic uint8

// Change topics.
const (
	// TopicView fires when the view state (and therefore the URL) changes.
	TopicView Topic = 1 << iota
	// TopicData fires when a page of results is applied or loading toggles.
	TopicData
	// TopicSelection fires when the row selection changes.
	TopicSelection
	// TopicNotice fires when a notice is added or dismissed.
	TopicNotice
	// TopicCatalog fires when the underlying record snapshot is replaced.
	TopicCatalog
	// TopicLayout fires when column widths change.
	TopicLayout

	TopicAll = TopicView | TopicData | TopicSelection | TopicNotice | TopicCatalog | TopicLayout
)

// Has reports whether every bit of o is set in t.
func (t Topic) Has(o Topic) bool { return t&o == o }

// Any reports whether t and o share a bit.
func (t Topic) Any(o Topic) bool { return t&o != 0 }

// Subscription is one listener.
type Subscription struct {
	mask Topic
	ch   chan struct{}

	mu      sync.Mutex
	pending Topic
}

// C receives a ping when pending topics are available.
func (s *Subscription) C() <-chan struct{} { return s.ch }

// Take returns the topics fired since the last call and clears them.
func (s *Subscription) Take() Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.pending
	s.pending = 0
	return t
}

func (s *Subscription) deliver(t Topic) {
	t &= s.mask
	if t == 0 {
		return
	}
	s.mu.Lock()
	s.pending |= t
	s.mu.Unlock()
	select {
	case s.ch <- struct{}{}:
	default:
		// a ping is already queued; the pending mask carries the new topics
	}
}

// Notifier broadcasts topic pings to its subscriptions.
type Notifier struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// New creates a Notifier.
func New() *Notifier {
	return &Notifier{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a listener for the topics in mask.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe(mask Topic) *Subscription {
	s := &Subscription{mask: mask, ch: make(chan struct{}, 1)}
	n.mu.Lock()
	n.subs[s] = struct{}{}
	n.mu.Unlock()
	return s
}

// Unsubscribe removes a listener and closes its channel. Unsubscribing twice
// is a no-op.
func (n *Notifier) Unsubscribe(s *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.subs[s]; !ok {
		return
	}
	delete(n.subs, s)
	close(s.ch)
}

// Broadcast pings every listener subscribed to any topic in t. It never
// blocks.
func (n *Notifier) Broadcast(t Topic) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for s := range n.subs {
		s.deliver(t)
	}
}

// Len returns the number of subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
