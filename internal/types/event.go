package types

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventStaked        EventType = "STAKED"
	EventUnstaked      EventType = "UNSTAKED"
	EventClaimed       EventType = "CLAIMED"
	EventRewardsFunded EventType = "REWARDS_FUNDED"
)

// StakeEvent is the payload appended to the event log and pushed to the queue
// after a ledger mutation has been persisted.
type StakeEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"event_type"`
	Account       string    `json:"account"`
	Token         TokenKind `json:"token"`
	Amount        uint64    `json:"amount"`
	RewardGranted uint64    `json:"reward_granted,omitempty"`
	RewardClaimed uint64    `json:"reward_claimed,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	Timestamp     int64     `json:"timestamp"`
}
