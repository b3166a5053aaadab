package types

import "fmt"

// TokenKind identifies which of the two ledger tokens a transfer or custody balance refers to.
type TokenKind string

const (
	TokenStake  TokenKind = "stake"
	TokenReward TokenKind = "reward"
)

func (t TokenKind) String() string {
	return string(t)
}

func TokenKindFromString(s string) (TokenKind, error) {
	switch s {
	case TokenStake.String():
		return TokenStake, nil
	case TokenReward.String():
		return TokenReward, nil
	default:
		return "", fmt.Errorf("invalid token kind: %s", s)
	}
}
