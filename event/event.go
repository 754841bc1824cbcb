// Package event fans committed transitions out to subscribers.
package event

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/metalledger/metal/errors"
	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/state"
)

const logModule = "event"

// ErrFeedClosed is returned when subscribing to or posting on a stopped Feed.
var ErrFeedClosed = errors.New("commit feed closed")

// Filter selects the commits a subscription receives. A nil Filter
// receives every commit.
type Filter func(*state.Commit) bool

// ForParty selects commits that consume or produce a record issued to or
// owned by the holder of key.
func ForParty(key bc.PublicKeyID) Filter {
	return func(c *state.Commit) bool {
		return Touches(c, key)
	}
}

// ForIntent selects commits of the given intent.
func ForIntent(intent bc.Intent) Filter {
	return func(c *state.Commit) bool {
		return c.Transition != nil && c.Transition.Intent == intent
	}
}

// Touches reports whether any record consumed or produced by c names key as
// its issuer or owner.
func Touches(c *state.Commit, key bc.PublicKeyID) bool {
	if c.Transition == nil {
		return false
	}
	for _, records := range [][]*bc.AssetRecord{c.Transition.Consumed, c.Transition.Produced} {
		for _, r := range records {
			if r != nil && (r.Owner.KeyID() == key || r.Issuer.KeyID() == key) {
				return true
			}
		}
	}
	return false
}

// Feed delivers every posted commit to the subscriptions whose filter
// accepts it, in post order. Post blocks while a matching subscription's
// buffer is full, so subscribers must keep reading until their channel
// is closed.
type Feed struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	stopped bool
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers filter with a channel of the given buffer size. The
// channel is closed by Unsubscribe or Stop.
func (f *Feed) Subscribe(filter Filter, buffer int) (*Subscription, error) {
	if buffer < 0 {
		buffer = 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return nil, ErrFeedClosed
	}

	c := make(chan *state.Commit, buffer)
	sub := &Subscription{
		feed:    f,
		filter:  filter,
		closing: make(chan struct{}),
		readC:   c,
		postC:   c,
	}
	f.subs[sub] = struct{}{}
	return sub, nil
}

// Post hands commit to every matching subscription.
func (f *Feed) Post(commit *state.Commit) error {
	f.mu.RLock()
	if f.stopped {
		f.mu.RUnlock()
		return ErrFeedClosed
	}
	subs := make([]*Subscription, 0, len(f.subs))
	for sub := range f.subs {
		if sub.filter == nil || sub.filter(commit) {
			subs = append(subs, sub)
		}
	}
	f.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(commit)
	}
	log.WithFields(log.Fields{"module": logModule, "id": commit.ID.String(), "subscribers": len(subs)}).Debug("commit posted")
	return nil
}

// Stop closes every subscription. Commits already buffered stay readable.
// Later calls to Post and Subscribe fail with ErrFeedClosed.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		sub.close()
	}
	f.subs = nil
	f.stopped = true
}

func (f *Feed) remove(s *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, s)
}

// Subscription is a filtered view of a Feed.
type Subscription struct {
	feed   *Feed
	filter Filter

	closeOnce sync.Once
	closing   chan struct{}

	// readC and postC are the same channel; postC is cleared on close
	// while Chan keeps returning readC.
	postMu sync.RWMutex
	readC  <-chan *state.Commit
	postC  chan<- *state.Commit
}

// Chan returns the channel commits are delivered on.
func (s *Subscription) Chan() <-chan *state.Commit {
	return s.readC
}

// Unsubscribe detaches s from its feed and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.feed.remove(s)
	s.close()
}

// Closed reports whether s has been unsubscribed or its feed stopped.
func (s *Subscription) Closed() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.closing)

		s.postMu.Lock()
		close(s.postC)
		s.postC = nil
		s.postMu.Unlock()
	})
}

func (s *Subscription) deliver(commit *state.Commit) {
	s.postMu.RLock()
	defer s.postMu.RUnlock()
	if s.postC == nil {
		return
	}

	select {
	case s.postC <- commit:
	case <-s.closing:
	}
}
