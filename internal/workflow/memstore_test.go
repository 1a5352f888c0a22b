package workflow

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/oracle"
	"zcoinsAPI/internal/types/challenge"
	"zcoinsAPI/internal/types/ledger"
)

// memStore is an in-memory Store. InTx snapshots the maps and restores them
// when fn fails.
type memStore struct {
	mu       sync.Mutex
	balances map[string]ledger.Balance
	defs     map[string]challenge.Definition
	attempts map[uuid.UUID]challenge.PlayerChallenge

	failCreate  error
	failResolve error
	failDelete  error
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		balances: make(map[string]ledger.Balance),
		defs:     make(map[string]challenge.Definition),
		attempts: make(map[uuid.UUID]challenge.PlayerChallenge),
	}
}

func (m *memStore) setZcoins(userID string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balances[userID]
	b.UserID = userID
	b.Zcoins = n
	m.balances[userID] = b
}

func (m *memStore) zcoins(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID].Zcoins
}

func (m *memStore) attemptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

func (m *memStore) attempt(id uuid.UUID) (challenge.PlayerChallenge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.attempts[id]
	return pc, ok
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	balances := maps.Clone(m.balances)
	attempts := maps.Clone(m.attempts)
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.balances = balances
		m.attempts = attempts
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) Balance(_ context.Context, userID string) (ledger.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return ledger.Balance{}, common.ErrorNotFound
	}
	return b, nil
}

func (m *memStore) mutate(userID string, c ledger.Currency, fn func(int) (int, error)) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balances[userID]
	b.UserID = userID
	cur := b.Of(c)
	next, err := fn(cur)
	if err != nil {
		return 0, err
	}
	if c == ledger.Zgold {
		b.Zgold = next
	} else {
		b.Zcoins = next
	}
	m.balances[userID] = b
	return next, nil
}

func (m *memStore) Spend(_ context.Context, userID string, c ledger.Currency, amount int) (int, error) {
	return m.mutate(userID, c, func(cur int) (int, error) {
		if cur < amount {
			return 0, common.ErrInsufficientFunds
		}
		return cur - amount, nil
	})
}

func (m *memStore) Credit(_ context.Context, userID string, c ledger.Currency, amount int) (int, error) {
	return m.mutate(userID, c, func(cur int) (int, error) { return cur + amount, nil })
}

func (m *memStore) Debit(_ context.Context, userID string, c ledger.Currency, amount int) (int, error) {
	return m.mutate(userID, c, func(cur int) (int, error) { return max(cur-amount, 0), nil })
}

func (m *memStore) GetDefinition(_ context.Context, id string) (*challenge.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &d, nil
}

func (m *memStore) CreateAttempt(_ context.Context, pc *challenge.PlayerChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	for _, other := range m.attempts {
		if other.UserID == pc.UserID && other.ChallengeID == pc.ChallengeID && !other.Status.Terminal() {
			return common.ErrAttemptInProgress
		}
	}
	m.attempts[pc.ID] = *pc
	return nil
}

func (m *memStore) GetAttempt(_ context.Context, userID string, id uuid.UUID) (*challenge.PlayerChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.attempts[id]
	if !ok || pc.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &pc, nil
}

func (m *memStore) ActivateAttempt(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.attempts[id]
	if !ok {
		return common.ErrorNotFound
	}
	pc.Status = challenge.StatusActive
	m.attempts[id] = pc
	return nil
}

func (m *memStore) ResolveAttempt(_ context.Context, id uuid.UUID, status challenge.Status, feedback string, proofURL *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failResolve != nil {
		return m.failResolve
	}
	pc, ok := m.attempts[id]
	if !ok {
		return common.ErrorNotFound
	}
	if pc.Status.Terminal() {
		return fmt.Errorf("%w: attempt %s is not open", common.ErrInvalidTransition, id)
	}
	pc.Status = status
	pc.AIFeedback = &feedback
	pc.ProofURL = proofURL
	if status == challenge.StatusCompleted {
		pc.CompletedAt = &at
		pc.RewardClaimed = true
	} else {
		pc.FailedAt = &at
	}
	m.attempts[id] = pc
	return nil
}

func (m *memStore) DeleteAttempt(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.attempts, id)
	return nil
}

func (m *memStore) ListStaleAttempts(_ context.Context, now time.Time, limit int) ([]challenge.PlayerChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []challenge.PlayerChallenge
	for _, pc := range m.attempts {
		if !pc.Status.Terminal() && pc.DeadlineAt.Before(now) {
			out = append(out, pc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeadlineAt.Before(out[j].DeadlineAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeOracle struct {
	verdict oracle.Verdict
	err     error
	calls   int
	last    oracle.VerifyRequest
	during  func()
}

func (f *fakeOracle) Verify(_ context.Context, req oracle.VerifyRequest) (oracle.Verdict, error) {
	f.calls++
	f.last = req
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return oracle.Verdict{}, f.err
	}
	return f.verdict, nil
}

type fakeProofs struct {
	err error
}

func (f *fakeProofs) UploadProof(_ context.Context, userID string, attemptID uuid.UUID, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://cdn.test/proofs/%s/%s", userID, attemptID), nil
}

type fakeReminders struct {
	err   error
	queue []time.Time
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, _ string, _ uuid.UUID, _ challenge.Definition, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.queue = append(f.queue, at)
	return nil
}
