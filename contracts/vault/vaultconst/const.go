// Package vaultconst contains constants shared by the Vault contract and its
// off-chain clients.
package vaultconst

// Lifecycle states of the Vault as returned by its `state` method.
const (
	StateNormal              = 0
	StateCatastrophicFailure = 1
)

// Notification names produced by the Vault contract.
const (
	AssetProxyChangedEvent   = "AssetProxyChanged"
	DepositEvent             = "Deposit"
	WithdrawEvent            = "Withdraw"
	CatastrophicFailureEvent = "CatastrophicFailure"
)

// FAULT exception messages of the Vault contract. Off-chain code matches
// exceptions by substring, so none of them is a substring of another.
const (
	// ErrUnauthorized is thrown when the caller lacks the capability required
	// by the method.
	ErrUnauthorized = "caller is not permitted to invoke the method"
	// ErrInCatastrophicFailure is thrown by methods available in Normal state
	// only.
	ErrInCatastrophicFailure = "vault is in catastrophic failure mode"
	// ErrNotInCatastrophicFailure is thrown by emergency methods called before
	// the failure mode is entered.
	ErrNotInCatastrophicFailure = "vault is not in catastrophic failure mode"
	// ErrAlreadyInFailureMode is thrown on repeated transition to the failure
	// mode.
	ErrAlreadyInFailureMode = "failure mode has already been entered"
	// ErrArithmeticOverflow is thrown when a balance would exceed the integer
	// range.
	ErrArithmeticOverflow = "arithmetic overflow"
	// ErrInsufficientBalance is thrown when a debit exceeds the balance.
	ErrInsufficientBalance = "insufficient balance"
	// ErrExternalTransferFailed is thrown when the asset or its transfer proxy
	// reports a failed transfer.
	ErrExternalTransferFailed = "asset transfer failed"
	// ErrReentrantCall is thrown when a mutating method is entered while
	// another one is in progress.
	ErrReentrantCall = "reentrant call"
	// ErrInvalidAmount is thrown for negative amounts.
	ErrInvalidAmount = "invalid amount"
	// ErrForeignAsset is thrown when the vault receives a token other than the
	// managed asset.
	ErrForeignAsset = "only the managed asset can be accepted"
)
