package model

import (
	"fmt"

	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/liquidstaking/staking-ledger/internal/vesting"
)

const (
	StakeCollection        = "stakes"
	StakeHistoryCollection = "stake_history"
)

// StakeRecord is the single stake slot of an account. It is never deleted,
// a closed record stays as the audit trail until the account stakes again.
type StakeRecord struct {
	Account       string `bson:"_id" json:"account"`
	Principal     uint64 `bson:"principal" json:"principal"`
	RewardGranted uint64 `bson:"reward_granted" json:"reward_granted"`
	RewardClaimed uint64 `bson:"reward_claimed" json:"reward_claimed"`
	StartTime     int64  `bson:"start_time" json:"start_time"`
	Unstaked      bool   `bson:"unstaked" json:"unstaked"`
	UnstakedAt    int64  `bson:"unstaked_at,omitempty" json:"unstaked_at,omitempty"`
	StakeSalt     string `bson:"stake_salt" json:"stake_salt"`
	ReferenceID   string `bson:"reference_id" json:"reference_id"`
}

func (r *StakeRecord) Grant() vesting.Grant {
	return vesting.Grant{
		Amount:    r.RewardGranted,
		StartTime: r.StartTime,
	}
}

// IsOpen reports whether the principal is still locked.
func (r *StakeRecord) IsOpen() bool {
	return !r.Unstaked
}

// HasUnclaimedReward reports whether part of the grant has not been paid out yet.
func (r *StakeRecord) HasUnclaimedReward() bool {
	return r.RewardClaimed < r.RewardGranted
}

// StakeHistoryDocument is a closed stake record archived before its slot is reused.
type StakeHistoryDocument struct {
	ID         string       `bson:"_id"`
	Account    string       `bson:"account"`
	Record     *StakeRecord `bson:"record"`
	ArchivedAt int64        `bson:"archived_at"`
}

// NewStakeHistoryDocument keys the archive entry by account and grant start,
// so archiving the same record twice collides instead of duplicating it.
func NewStakeHistoryDocument(record *StakeRecord, archivedAt int64) *StakeHistoryDocument {
	copied := *record
	return &StakeHistoryDocument{
		ID:         StakeHistoryID(record.Account, record.StartTime),
		Account:    record.Account,
		Record:     &copied,
		ArchivedAt: archivedAt,
	}
}

func StakeHistoryID(account string, startTime int64) string {
	return fmt.Sprintf("%s:%d", account, startTime)
}

// StakeStateOf derives the lifecycle state of a slot, a nil record is an account that never staked.
func StakeStateOf(r *StakeRecord) types.StakeState {
	switch {
	case r == nil:
		return types.StateNone
	case r.Unstaked:
		return types.StateUnstaked
	default:
		return types.StateStaked
	}
}
