package model

const CustodyBalanceCollection = "custody_balances"

// CustodyBalance is the pooled amount of one token held on behalf of all stakers.
// It is signed so that a reward pool that was never funded shows up as a deficit.
type CustodyBalance struct {
	Token       string `bson:"_id" json:"token"`
	Balance     int64  `bson:"balance" json:"balance"`
	LastUpdated int64  `bson:"last_updated" json:"last_updated"`
}
