package vault

import (
	"errors"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/stake-vault/common"
	"github.com/nspcc-dev/stake-vault/contracts/vault/vaultconst"
)

// Errors corresponding to the Vault contract exceptions. Use errors.Is to
// check errors returned by the package.
var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInCatastrophicFailure    = errors.New("in catastrophic failure mode")
	ErrNotInCatastrophicFailure = errors.New("not in catastrophic failure mode")
	ErrAlreadyInFailureMode     = errors.New("already in failure mode")
	ErrArithmeticOverflow       = errors.New("arithmetic overflow")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrExternalTransferFailed   = errors.New("external transfer failed")
	ErrReentrantCall            = errors.New("reentrant call")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrForeignAsset             = errors.New("foreign asset")
	ErrInvalidHash              = errors.New("invalid script hash")
)

var exceptions = []struct {
	msg string
	err error
}{
	{vaultconst.ErrUnauthorized, ErrUnauthorized},
	{vaultconst.ErrInCatastrophicFailure, ErrInCatastrophicFailure},
	{vaultconst.ErrNotInCatastrophicFailure, ErrNotInCatastrophicFailure},
	{vaultconst.ErrAlreadyInFailureMode, ErrAlreadyInFailureMode},
	{vaultconst.ErrArithmeticOverflow, ErrArithmeticOverflow},
	{vaultconst.ErrInsufficientBalance, ErrInsufficientBalance},
	{vaultconst.ErrExternalTransferFailed, ErrExternalTransferFailed},
	{vaultconst.ErrReentrantCall, ErrReentrantCall},
	{vaultconst.ErrInvalidAmount, ErrInvalidAmount},
	{vaultconst.ErrForeignAsset, ErrForeignAsset},
	{common.ErrInvalidHash, ErrInvalidHash},
}

// FaultError describes failed invocation of the Vault contract.
type FaultError struct {
	// Reason is one of the package Err* errors, nil if exception is not
	// recognized.
	Reason error
	// Exception is the exception message of the VM.
	Exception string

	cause error
}

func (e *FaultError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return "vault invocation failed: " + e.Exception
}

// Is makes errors.Is(err, ErrX) work for FaultError with Reason ErrX.
func (e *FaultError) Is(target error) bool {
	return e.Reason != nil && e.Reason == target
}

// Unwrap returns the original error of the RPC client, if any.
func (e *FaultError) Unwrap() error {
	return e.cause
}

// ParseFault returns FaultError for the given VM exception.
func ParseFault(exception string) *FaultError {
	res := &FaultError{Exception: exception}
	for _, ex := range exceptions {
		if strings.Contains(exception, ex.msg) {
			res.Reason = ex.err
			break
		}
	}
	return res
}

// CheckInvoke returns FaultError if r is a result of the FAULTed invocation.
func CheckInvoke(r *result.Invoke) error {
	if r == nil || r.State == vmstate.Halt.String() {
		return nil
	}
	return ParseFault(r.FaultException)
}

// ResolveError converts error of the RPC actor to FaultError if it carries a
// known Vault exception. Other errors are returned as is.
func ResolveError(err error) error {
	if err == nil {
		return nil
	}

	var fe *FaultError
	if errors.As(err, &fe) {
		return err
	}

	res := ParseFault(err.Error())
	if res.Reason == nil {
		return err
	}

	res.cause = err
	return res
}
