package db

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/types"
)

// MemoryDatabase keeps every collection in process memory. It honours the same
// conditional write rules as the mongo implementation and is meant for local
// runs and unit tests, nothing survives a restart.
type MemoryDatabase struct {
	mu              sync.RWMutex
	stakes          map[string]model.StakeRecord
	history         map[string]model.StakeHistoryDocument
	custody         map[types.TokenKind]model.CustodyBalance
	events          []model.StakeEventDocument
	eventIDs        map[string]struct{}
	reconciliations map[string]model.ReconciliationDocument
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		stakes:          make(map[string]model.StakeRecord),
		history:         make(map[string]model.StakeHistoryDocument),
		custody:         make(map[types.TokenKind]model.CustodyBalance),
		eventIDs:        make(map[string]struct{}),
		reconciliations: make(map[string]model.ReconciliationDocument),
	}
}

func (m *MemoryDatabase) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryDatabase) GetStake(_ context.Context, account string) (*model.StakeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.stakes[account]
	if !ok {
		return nil, &NotFoundError{
			Key:     account,
			Message: "stake not found",
		}
	}
	return &record, nil
}

func (m *MemoryDatabase) SaveNewStake(_ context.Context, record, replaced *model.StakeRecord) error {
	if record == nil {
		return errors.New("nil stake record")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.stakes[record.Account]
	switch {
	case replaced == nil && exists:
		return &DuplicateKeyError{
			Key:     record.Account,
			Message: "stake already exists",
		}
	case replaced != nil && (!exists || !current.Unstaked ||
		current.StartTime != replaced.StartTime || current.RewardClaimed != replaced.RewardClaimed):
		return &DuplicateKeyError{
			Key:     record.Account,
			Message: "stake slot is not in the expected closed state",
		}
	}

	m.stakes[record.Account] = *record
	return nil
}

func (m *MemoryDatabase) MarkStakeUnstaked(_ context.Context, account string, unstakedAt int64) (*model.StakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.stakes[account]
	if !ok || record.Unstaked {
		return nil, &NotFoundError{
			Key:     account,
			Message: "open stake not found",
		}
	}

	record.Unstaked = true
	record.UnstakedAt = unstakedAt
	m.stakes[account] = record
	return &record, nil
}

func (m *MemoryDatabase) UpdateStakeRewardClaimed(_ context.Context, account string, prevClaimed, newClaimed uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.stakes[account]
	if !ok || record.RewardClaimed != prevClaimed || record.RewardGranted < newClaimed {
		return &NotFoundError{
			Key:     account,
			Message: "stake not found or claimed reward changed concurrently",
		}
	}

	record.RewardClaimed = newClaimed
	m.stakes[account] = record
	return nil
}

func (m *MemoryDatabase) ArchiveStake(_ context.Context, doc *model.StakeHistoryDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.history[doc.ID]; ok {
		return nil
	}
	stored := *doc
	record := *doc.Record
	stored.Record = &record
	m.history[doc.ID] = stored
	return nil
}

func (m *MemoryDatabase) GetStakeHistory(_ context.Context, account string) ([]*model.StakeHistoryDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []*model.StakeHistoryDocument
	for _, doc := range m.history {
		if doc.Account != account {
			continue
		}
		record := *doc.Record
		doc.Record = &record
		docs = append(docs, &doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ArchivedAt > docs[j].ArchivedAt
	})
	return docs, nil
}

func (m *MemoryDatabase) IncrementCustodyBalance(_ context.Context, token types.TokenKind, delta int64, updatedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance := m.custody[token]
	balance.Token = token.String()
	balance.Balance += delta
	balance.LastUpdated = updatedAt
	m.custody[token] = balance
	return nil
}

func (m *MemoryDatabase) GetCustodyBalances(_ context.Context) ([]*model.CustodyBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	balances := make([]*model.CustodyBalance, 0, len(m.custody))
	for _, balance := range m.custody {
		balances = append(balances, &balance)
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Token < balances[j].Token
	})
	return balances, nil
}

func (m *MemoryDatabase) SaveStakeEvent(_ context.Context, doc *model.StakeEventDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.eventIDs[doc.ID]; ok {
		return &DuplicateKeyError{
			Key:     doc.ID,
			Message: "stake event already exists",
		}
	}
	m.eventIDs[doc.ID] = struct{}{}
	m.events = append(m.events, *doc)
	return nil
}

func (m *MemoryDatabase) GetStakeEvents(_ context.Context, account string, limit int64) ([]*model.StakeEventDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []*model.StakeEventDocument
	// events are appended in order, walk backwards for newest first
	for i := len(m.events) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(docs)) >= limit {
			break
		}
		if m.events[i].Account != account {
			continue
		}
		doc := m.events[i]
		docs = append(docs, &doc)
	}
	return docs, nil
}

func (m *MemoryDatabase) SaveReconciliation(_ context.Context, doc *model.ReconciliationDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reconciliations[doc.ID]; ok {
		return &DuplicateKeyError{
			Key:     doc.ID,
			Message: "reconciliation already exists",
		}
	}
	m.reconciliations[doc.ID] = *doc
	return nil
}

func (m *MemoryDatabase) GetReconciliation(_ context.Context, id string) (*model.ReconciliationDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.reconciliations[id]
	if !ok {
		return nil, &NotFoundError{
			Key:     id,
			Message: "reconciliation not found",
		}
	}
	return &doc, nil
}

func (m *MemoryDatabase) FindPendingReconciliations(_ context.Context, limit int64) ([]*model.ReconciliationDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []*model.ReconciliationDocument
	for _, doc := range m.reconciliations {
		if doc.State != model.ReconciliationPending {
			continue
		}
		docs = append(docs, &doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt == docs[j].CreatedAt {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt < docs[j].CreatedAt
	})
	if limit > 0 && int64(len(docs)) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MemoryDatabase) CountPendingReconciliations(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, doc := range m.reconciliations {
		if doc.State == model.ReconciliationPending {
			count++
		}
	}
	return count, nil
}

func (m *MemoryDatabase) ResolveReconciliation(_ context.Context, id, note string, resolvedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.reconciliations[id]
	if !ok || doc.State != model.ReconciliationPending {
		return &NotFoundError{
			Key:     id,
			Message: "pending reconciliation not found",
		}
	}

	doc.State = model.ReconciliationResolved
	doc.ResolvedAt = resolvedAt
	doc.ResolutionNote = note
	m.reconciliations[id] = doc
	return nil
}
