package browse

import (
	"context"
	"errors"
)

var errNoSource = errors.New("no data source configured")

// Pending tracks one dispatched fetch. Done closes once the fetch has been
// applied, discarded as stale, or superseded by a follow-up fetch that has
// itself completed.
type Pending struct {
	token uint64
	done  chan struct{}
	err   error
}

func newPending(token uint64) *Pending {
	return &Pending{token: token, done: make(chan struct{})}
}

func donePending(token uint64) *Pending {
	p := newPending(token)
	close(p.done)
	return p
}

// Token is the fetch token; zero when the transition changed nothing.
func (p *Pending) Token() uint64 { return p.token }

// Done is closed when the fetch has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the fetch settles or ctx ends. It returns the fetch error,
// if the result was applied as a failure.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

// follow settles p when next settles.
func (p *Pending) follow(next *Pending) {
	<-next.done
	p.finish(next.err)
}
