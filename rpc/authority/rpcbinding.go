// Package authority contains RPC wrappers for the Vault Authority contract.
package authority

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Notification names of the contract.
const (
	AuthorizedEventName                = "Authorized"
	RevokedEventName                   = "Revoked"
	StakingCoordinatorChangedEventName = "StakingCoordinatorChanged"
)

// ErrNoCoordinator is returned by StakingCoordinator if the coordinator is
// not set yet.
var ErrNoCoordinator = errors.New("staking coordinator is not set")

// IdentityEvent represents "Authorized", "Revoked" and
// "StakingCoordinatorChanged" events emitted by the contract.
type IdentityEvent struct {
	Name     string
	Identity util.Uint160
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// IsAuthorized invokes `isAuthorized` method of contract.
func (c *ContractReader) IsAuthorized(h util.Uint160) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isAuthorized", h))
}

// IsStakingCoordinator invokes `isStakingCoordinator` method of contract.
func (c *ContractReader) IsStakingCoordinator(h util.Uint160) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isStakingCoordinator", h))
}

// StakingCoordinator invokes `stakingCoordinator` method of contract. It
// returns ErrNoCoordinator if the contract returns null.
func (c *ContractReader) StakingCoordinator() (util.Uint160, error) {
	item, err := unwrap.Item(c.invoker.Call(c.hash, "stakingCoordinator"))
	if err != nil {
		return util.Uint160{}, err
	}
	if _, ok := item.(stackitem.Null); ok {
		return util.Uint160{}, ErrNoCoordinator
	}
	return itemToUint160(item)
}

// ListAuthorized invokes `listAuthorized` method of contract.
func (c *ContractReader) ListAuthorized() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "listAuthorized"))
}

// ListAuthorizedExpanded is similar to ListAuthorized (uses the same contract
// method), but returns up to max identities expanded right in the VM. It
// can be useful if the server used doesn't support sessions.
func (c *ContractReader) ListAuthorizedExpanded(max int) ([]util.Uint160, error) {
	items, err := unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "listAuthorized", max))
	if err != nil {
		return nil, err
	}

	res := make([]util.Uint160, 0, len(items))
	for i := range items {
		h, err := itemToUint160(items[i])
		if err != nil {
			return nil, fmt.Errorf("item #%d: %w", i, err)
		}
		res = append(res, h)
	}
	return res, nil
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// Authorize creates a transaction invoking `authorize` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Authorize(h util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "authorize", h)
}

// AuthorizeUnsigned creates a transaction invoking `authorize` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Committee multisignature is usually collected for it.
func (c *Contract) AuthorizeUnsigned(h util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "authorize", nil, h)
}

// Revoke creates a transaction invoking `revoke` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Revoke(h util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "revoke", h)
}

// RevokeUnsigned creates a transaction invoking `revoke` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
func (c *Contract) RevokeUnsigned(h util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "revoke", nil, h)
}

// SetStakingCoordinator creates a transaction invoking `setStakingCoordinator` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SetStakingCoordinator(h util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "setStakingCoordinator", h)
}

// SetStakingCoordinatorUnsigned creates a transaction invoking `setStakingCoordinator` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
func (c *Contract) SetStakingCoordinatorUnsigned(h util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "setStakingCoordinator", nil, h)
}

// IdentityEventsFromApplicationLog retrieves all Authorized, Revoked and
// StakingCoordinatorChanged events from the provided [result.ApplicationLog]
// in the order of emission.
func IdentityEventsFromApplicationLog(log *result.ApplicationLog) ([]*IdentityEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*IdentityEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			switch e.Name {
			case AuthorizedEventName, RevokedEventName, StakingCoordinatorChangedEventName:
			default:
				continue
			}

			event := &IdentityEvent{Name: e.Name}
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize %s event from stackitem (execution #%d, event #%d): %w", e.Name, i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to IdentityEvent or
// returns an error if it's not possible to do to so.
func (e *IdentityEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 1 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	e.Identity, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field Identity: %w", err)
	}

	return nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	return util.Uint160DecodeBytesBE(b)
}
