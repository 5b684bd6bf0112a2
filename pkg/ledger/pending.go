package ledger

import (
	"context"

	"github.com/famledger/famledger/pkg/transaction"
)

// Pending is the handle of an optimistic insert. It resolves exactly once,
// either with the confirmed transaction or with the write error after the
// record was rolled back.
type Pending struct {
	ProvisionalId string
	done          chan struct{}
	result        transaction.Transaction
	err           error
}

func newPending(provisionalId string) *Pending {
	return &Pending{ProvisionalId: provisionalId, done: make(chan struct{})}
}

func (p *Pending) resolve(result transaction.Transaction, err error) {
	p.result = result
	p.err = err
	close(p.done)
}

// Done is closed once the remote write has been confirmed or rolled back.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the write outcome is known or ctx is done. Giving up on
// waiting does not cancel the write.
func (p *Pending) Wait(ctx context.Context) (transaction.Transaction, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return transaction.Transaction{}, ctx.Err()
	}
}
