package types

// Enum values for the lifecycle of an account stake slot
type StakeState string

const (
	// StateNone means the account never staked
	StateNone     StakeState = "NONE"
	StateStaked   StakeState = "STAKED"
	StateUnstaked StakeState = "UNSTAKED"
)

func (s StakeState) String() string {
	return string(s)
}
