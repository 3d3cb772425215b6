package service

import (
	"context"
	"sync"
	"time"

	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
)

// CaseStoreTx provides a transactional boundary for behandling mutations.
// Implementations may wrap a database transaction or, in-memory, a lock per
// behandling. Calls for the same behandling are serialised. fn must use the
// context it is handed; it carries the transaction and its deadline.
type CaseStoreTx interface {
	RunInTx(ctx context.Context, caseID id.CaseID, fn func(ctx context.Context, store Store) error) error
}

// numCaseShards spreads behandlinger over a fixed set of mutexes keyed by a
// hash of the behandling ID.
const numCaseShards = 128

// defaultCaseTxTimeout is the maximum duration for a behandling transaction.
const defaultCaseTxTimeout = 5 * time.Second

type shardedCaseTx struct {
	shards  [numCaseShards]sync.Mutex
	store   Store
	timeout time.Duration
}

// NewShardedTx serialises mutations per behandling over an in-process store.
// A zero timeout uses the default.
func NewShardedTx(store Store, timeout time.Duration) CaseStoreTx {
	return &shardedCaseTx{store: store, timeout: timeout}
}

func (t *shardedCaseTx) RunInTx(ctx context.Context, caseID id.CaseID, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCaseTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashCaseID(caseID) % numCaseShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, t.store)
}

// hashCaseID is FNV-1a over the ID bytes.
func hashCaseID(caseID id.CaseID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for _, b := range caseID {
		h ^= uint32(b)
		h *= fnvPrime
	}
	return h
}
