package model

import "github.com/liquidstaking/staking-ledger/internal/types"

const StakeEventCollection = "stake_events"

type StakeEventDocument struct {
	ID            string          `bson:"_id"`
	Type          types.EventType `bson:"event_type"`
	Account       string          `bson:"account"`
	Token         types.TokenKind `bson:"token"`
	Amount        uint64          `bson:"amount"`
	RewardGranted uint64          `bson:"reward_granted,omitempty"`
	RewardClaimed uint64          `bson:"reward_claimed,omitempty"`
	ReferenceID   string          `bson:"reference_id,omitempty"`
	Timestamp     int64           `bson:"timestamp"`
}

func FromStakeEvent(ev *types.StakeEvent) *StakeEventDocument {
	return &StakeEventDocument{
		ID:            ev.ID,
		Type:          ev.Type,
		Account:       ev.Account,
		Token:         ev.Token,
		Amount:        ev.Amount,
		RewardGranted: ev.RewardGranted,
		RewardClaimed: ev.RewardClaimed,
		ReferenceID:   ev.ReferenceID,
		Timestamp:     ev.Timestamp,
	}
}
