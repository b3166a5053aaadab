package transferclient

import "context"

// TransferInterface moves tokens between an account wallet and the pooled custody.
// reference identifies the transfer on the remote side, repeating a call with the
// same reference must not move funds twice.
//
//go:generate mockery --name=TransferInterface --output=../../../tests/mocks --outpkg=mocks --filename=mock_transfer_client.go
type TransferInterface interface {
	// Debit moves amount of token from the account into custody
	Debit(ctx context.Context, account, token string, amount uint64, reference string) error
	// Credit moves amount of token from custody to the account
	Credit(ctx context.Context, account, token string, amount uint64, reference string) error
}
