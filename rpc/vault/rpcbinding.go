// Package vault contains RPC wrappers for the Vault contract.
package vault

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/stake-vault/contracts/vault/vaultconst"
)

// AssetProxyChangedEvent represents "AssetProxyChanged" event emitted by the contract.
type AssetProxyChangedEvent struct {
	NewProxy util.Uint160
}

// DepositEvent represents "Deposit" event emitted by the contract.
type DepositEvent struct {
	Owner  util.Uint160
	Amount *big.Int
}

// WithdrawEvent represents "Withdraw" event emitted by the contract.
type WithdrawEvent struct {
	Owner  util.Uint160
	Amount *big.Int
}

// CatastrophicFailureEvent represents "CatastrophicFailure" event emitted by the contract.
type CatastrophicFailureEvent struct {
	By util.Uint160
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
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

func (c *ContractReader) call(method string, params ...any) (*result.Invoke, error) {
	r, err := c.invoker.Call(c.hash, method, params...)
	if err != nil {
		return nil, err
	}
	return r, CheckInvoke(r)
}

// BalanceOf invokes `balanceOf` method of contract.
func (c *ContractReader) BalanceOf(owner util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.call("balanceOf", owner))
}

// TotalBalance invokes `totalBalance` method of contract.
func (c *ContractReader) TotalBalance() (*big.Int, error) {
	return unwrap.BigInt(c.call("totalBalance"))
}

// State invokes `state` method of contract.
func (c *ContractReader) State() (*big.Int, error) {
	return unwrap.BigInt(c.call("state"))
}

// InCatastrophicFailure checks whether the vault has entered catastrophic
// failure mode.
func (c *ContractReader) InCatastrophicFailure() (bool, error) {
	st, err := c.State()
	if err != nil {
		return false, err
	}
	return st.Cmp(big.NewInt(vaultconst.StateCatastrophicFailure)) == 0, nil
}

// Asset invokes `asset` method of contract.
func (c *ContractReader) Asset() (util.Uint160, error) {
	return unwrap.Uint160(c.call("asset"))
}

// AssetProxy invokes `assetProxy` method of contract.
func (c *ContractReader) AssetProxy() (util.Uint160, error) {
	return unwrap.Uint160(c.call("assetProxy"))
}

// Authority invokes `authority` method of contract.
func (c *ContractReader) Authority() (util.Uint160, error) {
	return unwrap.Uint160(c.call("authority"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.call("version"))
}

func (c *Contract) send(method string, params ...any) (util.Uint256, uint32, error) {
	h, vub, err := c.actor.SendCall(c.hash, method, params...)
	return h, vub, ResolveError(err)
}

func (c *Contract) make(method string, params ...any) (*transaction.Transaction, error) {
	tx, err := c.actor.MakeCall(c.hash, method, params...)
	return tx, ResolveError(err)
}

// ConfigureAssetProxy creates a transaction invoking `configureAssetProxy` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) ConfigureAssetProxy(newProxy util.Uint160) (util.Uint256, uint32, error) {
	return c.send("configureAssetProxy", newProxy)
}

// ConfigureAssetProxyTransaction creates a transaction invoking `configureAssetProxy` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ConfigureAssetProxyTransaction(newProxy util.Uint160) (*transaction.Transaction, error) {
	return c.make("configureAssetProxy", newProxy)
}

// ConfigureAssetProxyUnsigned creates a transaction invoking `configureAssetProxy` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ConfigureAssetProxyUnsigned(newProxy util.Uint160) (*transaction.Transaction, error) {
	tx, err := c.actor.MakeUnsignedCall(c.hash, "configureAssetProxy", nil, newProxy)
	return tx, ResolveError(err)
}

// DepositFrom creates a transaction invoking `depositFrom` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) DepositFrom(owner util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.send("depositFrom", owner, amount)
}

// DepositFromTransaction creates a transaction invoking `depositFrom` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) DepositFromTransaction(owner util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.make("depositFrom", owner, amount)
}

// WithdrawFrom creates a transaction invoking `withdrawFrom` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) WithdrawFrom(owner util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return c.send("withdrawFrom", owner, amount)
}

// WithdrawFromTransaction creates a transaction invoking `withdrawFrom` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) WithdrawFromTransaction(owner util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return c.make("withdrawFrom", owner, amount)
}

// WithdrawAllFrom creates a transaction invoking `withdrawAllFrom` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
// The amount withdrawn is reported by the Withdraw event of the transaction.
func (c *Contract) WithdrawAllFrom(owner util.Uint160) (util.Uint256, uint32, error) {
	return c.send("withdrawAllFrom", owner)
}

// WithdrawAllFromTransaction creates a transaction invoking `withdrawAllFrom` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) WithdrawAllFromTransaction(owner util.Uint160) (*transaction.Transaction, error) {
	return c.make("withdrawAllFrom", owner)
}

// EnterCatastrophicFailure creates a transaction invoking `enterCatastrophicFailure` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) EnterCatastrophicFailure() (util.Uint256, uint32, error) {
	return c.send("enterCatastrophicFailure")
}

// EnterCatastrophicFailureTransaction creates a transaction invoking `enterCatastrophicFailure` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) EnterCatastrophicFailureTransaction() (*transaction.Transaction, error) {
	return c.make("enterCatastrophicFailure")
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(nefFile []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.send("update", nefFile, manifest, data)
}

// AssetProxyChangedEventsFromApplicationLog retrieves a set of all emitted events
// with "AssetProxyChanged" name from the provided [result.ApplicationLog].
func AssetProxyChangedEventsFromApplicationLog(log *result.ApplicationLog) ([]*AssetProxyChangedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*AssetProxyChangedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != vaultconst.AssetProxyChangedEvent {
				continue
			}
			event := new(AssetProxyChangedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize AssetProxyChangedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to AssetProxyChangedEvent or
// returns an error if it's not possible to do to so.
func (e *AssetProxyChangedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 1)
	if err != nil {
		return err
	}

	e.NewProxy, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field NewProxy: %w", err)
	}

	return nil
}

// DepositEventsFromApplicationLog retrieves a set of all emitted events
// with "Deposit" name from the provided [result.ApplicationLog].
func DepositEventsFromApplicationLog(log *result.ApplicationLog) ([]*DepositEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*DepositEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != vaultconst.DepositEvent {
				continue
			}
			event := new(DepositEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize DepositEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to DepositEvent or
// returns an error if it's not possible to do to so.
func (e *DepositEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 2)
	if err != nil {
		return err
	}

	e.Owner, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	e.Amount, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// WithdrawEventsFromApplicationLog retrieves a set of all emitted events
// with "Withdraw" name from the provided [result.ApplicationLog].
func WithdrawEventsFromApplicationLog(log *result.ApplicationLog) ([]*WithdrawEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*WithdrawEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != vaultconst.WithdrawEvent {
				continue
			}
			event := new(WithdrawEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize WithdrawEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to WithdrawEvent or
// returns an error if it's not possible to do to so.
func (e *WithdrawEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 2)
	if err != nil {
		return err
	}

	e.Owner, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	e.Amount, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// CatastrophicFailureEventsFromApplicationLog retrieves a set of all emitted events
// with "CatastrophicFailure" name from the provided [result.ApplicationLog].
func CatastrophicFailureEventsFromApplicationLog(log *result.ApplicationLog) ([]*CatastrophicFailureEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*CatastrophicFailureEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != vaultconst.CatastrophicFailureEvent {
				continue
			}
			event := new(CatastrophicFailureEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize CatastrophicFailureEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to CatastrophicFailureEvent or
// returns an error if it's not possible to do to so.
func (e *CatastrophicFailureEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 1)
	if err != nil {
		return err
	}

	e.By, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field By: %w", err)
	}

	return nil
}

func eventFields(item *stackitem.Array, n int) ([]stackitem.Item, error) {
	if item == nil {
		return nil, errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	if len(arr) != n {
		return nil, errors.New("wrong number of structure elements")
	}
	return arr, nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, err
	}
	return u, nil
}
