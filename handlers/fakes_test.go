package handlers

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"zcoinsAPI/internal/common"
	"zcoinsAPI/internal/oracle"
	"zcoinsAPI/internal/store"
	"zcoinsAPI/internal/types/challenge"
	"zcoinsAPI/internal/types/ledger"
	"zcoinsAPI/internal/types/reward"
	"zcoinsAPI/internal/workflow"
)

// gameStore backs both the engine and the challenge routes in memory. InTx
// restores the maps when fn fails.
type gameStore struct {
	mu       sync.Mutex
	balances map[string]ledger.Balance
	defs     map[string]challenge.Definition
	attempts map[uuid.UUID]challenge.PlayerChallenge
}

var (
	_ workflow.Store      = (*gameStore)(nil)
	_ ChallengeRepository = (*gameStore)(nil)
)

func newGameStore() *gameStore {
	return &gameStore{
		balances: map[string]ledger.Balance{},
		defs: map[string]challenge.Definition{
			"static-hydrate": {
				ID: "static-hydrate", Title: "Drink Water", Cost: 1, Reward: 3, FailurePenalty: 1,
				Difficulty: challenge.DifficultyEasy, TimeLimitMinutes: 30, Icon: challenge.IconWater, Source: challenge.SourceStatic,
			},
		},
		attempts: map[uuid.UUID]challenge.PlayerChallenge{},
	}
}

func (g *gameStore) fund(userID string, zcoins int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balances[userID] = ledger.Balance{UserID: userID, Zcoins: zcoins}
}

func (g *gameStore) zcoins(userID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[userID].Zcoins
}

func (g *gameStore) InTx(ctx context.Context, fn func(ctx context.Context, tx workflow.Tx) error) error {
	g.mu.Lock()
	balances := maps.Clone(g.balances)
	attempts := maps.Clone(g.attempts)
	g.mu.Unlock()

	if err := fn(ctx, g); err != nil {
		g.mu.Lock()
		g.balances = balances
		g.attempts = attempts
		g.mu.Unlock()
		return err
	}
	return nil
}

func (g *gameStore) Balance(_ context.Context, userID string) (ledger.Balance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.balances[userID]
	if !ok {
		return ledger.Balance{}, common.ErrorNotFound
	}
	return b, nil
}

func (g *gameStore) add(userID string, delta int, floor bool) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := g.balances[userID]
	b.UserID = userID
	next := b.Zcoins + delta
	if next < 0 {
		if !floor {
			return 0, common.ErrInsufficientFunds
		}
		next = 0
	}
	b.Zcoins = next
	g.balances[userID] = b
	return next, nil
}

func (g *gameStore) Spend(_ context.Context, userID string, _ ledger.Currency, amount int) (int, error) {
	return g.add(userID, -amount, false)
}

func (g *gameStore) Credit(_ context.Context, userID string, _ ledger.Currency, amount int) (int, error) {
	return g.add(userID, amount, false)
}

func (g *gameStore) Debit(_ context.Context, userID string, _ ledger.Currency, amount int) (int, error) {
	return g.add(userID, -amount, true)
}

func (g *gameStore) GetDefinition(_ context.Context, id string) (*challenge.Definition, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.defs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &d, nil
}

func (g *gameStore) ListDefinitions(context.Context, string) ([]*challenge.Definition, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*challenge.Definition, 0, len(g.defs))
	for _, d := range g.defs {
		out = append(out, &d)
	}
	return out, nil
}

func (g *gameStore) CreateAttempt(_ context.Context, pc *challenge.PlayerChallenge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, other := range g.attempts {
		if other.UserID == pc.UserID && other.ChallengeID == pc.ChallengeID && !other.Status.Terminal() {
			return common.ErrAttemptInProgress
		}
	}
	g.attempts[pc.ID] = *pc
	return nil
}

func (g *gameStore) GetAttempt(_ context.Context, userID string, id uuid.UUID) (*challenge.PlayerChallenge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pc, ok := g.attempts[id]
	if !ok || pc.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &pc, nil
}

func (g *gameStore) ListAttempts(_ context.Context, userID string, _ int) ([]*challenge.PlayerChallenge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*challenge.PlayerChallenge
	for _, pc := range g.attempts {
		if pc.UserID == userID {
			out = append(out, &pc)
		}
	}
	return out, nil
}

func (g *gameStore) ActivateAttempt(_ context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	pc := g.attempts[id]
	pc.Status = challenge.StatusActive
	g.attempts[id] = pc
	return nil
}

func (g *gameStore) ResolveAttempt(_ context.Context, id uuid.UUID, status challenge.Status, feedback string, proofURL *string, at time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	pc := g.attempts[id]
	pc.Status = status
	pc.AIFeedback = &feedback
	pc.ProofURL = proofURL
	g.attempts[id] = pc
	return nil
}

func (g *gameStore) DeleteAttempt(_ context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, id)
	return nil
}

func (g *gameStore) ListStaleAttempts(context.Context, time.Time, int) ([]challenge.PlayerChallenge, error) {
	return nil, nil
}

type stubVerifier struct {
	verdict oracle.Verdict
	err     error
}

func (s stubVerifier) Verify(context.Context, oracle.VerifyRequest) (oracle.Verdict, error) {
	return s.verdict, s.err
}

type stubGenerator struct {
	counts []int
}

func (s *stubGenerator) Generate(_ context.Context, _ string, count int) []challenge.Definition {
	s.counts = append(s.counts, count)
	return make([]challenge.Definition, count)
}

type stubShop struct {
	items       map[string][]*store.Item
	purchaseErr error
	purchase    *store.Purchase
	balance     int
}

func (s *stubShop) Catalog(context.Context) (map[string][]*store.Item, error) {
	return s.items, nil
}

func (s *stubShop) Inventory(context.Context, string) ([]*store.InventoryItem, error) {
	return []*store.InventoryItem{}, nil
}

func (s *stubShop) Purchase(context.Context, string, string) (*store.Purchase, int, error) {
	if s.purchaseErr != nil {
		return nil, 0, s.purchaseErr
	}
	return s.purchase, s.balance, nil
}

type stubRewards struct {
	claimErr error
}

func (s stubRewards) Status(context.Context, string) (*reward.Status, error) {
	return &reward.Status{Available: true, NextStreak: 1, NextZcoins: 5}, nil
}

func (s stubRewards) Claim(context.Context, string) (*reward.Claim, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	return &reward.Claim{Streak: 1, ZcoinsAwarded: 5, Zcoins: 5}, nil
}

type recordingDevices struct {
	tokens []string
}

func (r *recordingDevices) RegisterDevice(_ context.Context, _, token, _ string) error {
	r.tokens = append(r.tokens, token)
	return nil
}

type recordingAccounts struct {
	created []string
	deleted []string
}

func (r *recordingAccounts) EnsureAccount(_ context.Context, userID string) (bool, error) {
	r.created = append(r.created, userID)
	return true, nil
}

func (r *recordingAccounts) DeleteAccount(_ context.Context, userID string) error {
	r.deleted = append(r.deleted, userID)
	return nil
}
