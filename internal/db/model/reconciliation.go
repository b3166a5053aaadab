package model

import "github.com/liquidstaking/staking-ledger/internal/types"

const ReconciliationCollection = "reconciliations"

type ReconciliationState string

const (
	ReconciliationPending  ReconciliationState = "PENDING"
	ReconciliationResolved ReconciliationState = "RESOLVED"
)

func (s ReconciliationState) String() string {
	return string(s)
}

// ReconciliationDocument records a transfer that went through while the matching
// ledger write did not. Funds already moved, so an operator has to settle it by hand.
type ReconciliationDocument struct {
	ID             string              `bson:"_id" json:"id"`
	Operation      types.EventType     `bson:"operation" json:"operation"`
	Account        string              `bson:"account" json:"account"`
	Token          types.TokenKind     `bson:"token" json:"token"`
	Amount         uint64              `bson:"amount" json:"amount"`
	TransferRef    string              `bson:"transfer_ref" json:"transfer_ref"`
	Cause          string              `bson:"cause" json:"cause"`
	State          ReconciliationState `bson:"state" json:"state"`
	CreatedAt      int64               `bson:"created_at" json:"created_at"`
	ResolvedAt     int64               `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	ResolutionNote string              `bson:"resolution_note,omitempty" json:"resolution_note,omitempty"`
}
