package state

import "github.com/liquidstaking/staking-ledger/internal/types"

// stakeStateChangeMap maps the current state of a stake slot to the states it can transition to
var stakeStateChangeMap = map[types.StakeState][]types.StakeState{
	types.StateNone:     {types.StateStaked},
	types.StateStaked:   {types.StateUnstaked},
	types.StateUnstaked: {types.StateStaked},
}

func IsQualifiedStateForStakeStateChange(currentState, newState types.StakeState) bool {
	qualifiedStates, ok := stakeStateChangeMap[currentState]
	if !ok {
		return false
	}
	for _, state := range qualifiedStates {
		if state == newState {
			return true
		}
	}
	return false
}
