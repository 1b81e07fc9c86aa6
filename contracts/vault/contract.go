package vault

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/stake-vault/common"
	"github.com/nspcc-dev/stake-vault/contracts/vault/vaultconst"
)

const (
	balancePrefix = 'b'

	totalKey     = "t"
	assetKey     = "a"
	proxyKey     = "p"
	authorityKey = "o"
	stateKey     = "s"
	lockKey      = "l"

	// balances are bounded by the largest NeoVM integer, 2^255-1, which is
	// built from 2^254 at runtime to keep constants within int.
	maxAmountHalfShift = 254
)

// nolint:unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		authority interop.Hash160
		proxy     interop.Hash160
		asset     interop.Hash160
	})

	common.CheckHash160(args.authority)
	common.CheckHash160(args.proxy)
	common.CheckHash160(args.asset)

	storage.Put(ctx, authorityKey, args.authority)
	storage.Put(ctx, proxyKey, args.proxy)
	storage.Put(ctx, assetKey, args.asset)

	runtime.Log("vault contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(nefFile, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("vault contract updated")
}

// OnNEP17Payment is a callback for NEP-17 compatible asset contracts. The
// vault takes custody of the managed asset only, any other token is rejected.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	ctx := storage.GetReadOnlyContext()
	asset := storage.Get(ctx, assetKey).(interop.Hash160)

	if !runtime.GetCallingScriptHash().Equals(asset) {
		panic(vaultconst.ErrForeignAsset)
	}
}

// ConfigureAssetProxy replaces the transfer proxy used to pull deposits into
// the vault. It can be invoked only by an authorized party and only in Normal
// state.
//
// It produces AssetProxyChanged notification.
func ConfigureAssetProxy(newProxy interop.Hash160) {
	ctx := storage.GetContext()

	enter(ctx)
	checkAuthorized(ctx)
	requireNormal(ctx)
	common.CheckHash160(newProxy)

	storage.Put(ctx, proxyKey, newProxy)
	runtime.Notify(vaultconst.AssetProxyChangedEvent, newProxy)

	leave(ctx)
}

// DepositFrom credits amount to the owner balance and pulls the same amount
// of the managed asset from the owner through the transfer proxy. It can be
// invoked only by the staking coordinator and only in Normal state.
//
// The ledger is updated before the proxy is called, so any re-entrant read
// observes the credited balance. Failed transfer aborts the whole invocation.
//
// It produces Deposit notification.
func DepositFrom(owner interop.Hash160, amount int) {
	ctx := storage.GetContext()

	enter(ctx)
	checkStakingCoordinator(ctx)
	requireNormal(ctx)
	common.CheckHash160(owner)
	checkAmount(amount)

	credit(ctx, owner, amount)
	runtime.Notify(vaultconst.DepositEvent, owner, amount)

	var (
		proxy = storage.Get(ctx, proxyKey).(interop.Hash160)
		asset = storage.Get(ctx, assetKey).(interop.Hash160)
		self  = runtime.GetExecutingScriptHash()
	)

	ok := contract.Call(proxy, "transferFrom", contract.All, asset, owner, self, amount).(bool)
	if !ok {
		panic(vaultconst.ErrExternalTransferFailed)
	}

	leave(ctx)
}

// WithdrawFrom debits amount from the owner balance and transfers the same
// amount of the managed asset back to the owner. It can be invoked only by
// the staking coordinator and only in Normal state.
//
// It produces Withdraw notification.
func WithdrawFrom(owner interop.Hash160, amount int) {
	ctx := storage.GetContext()

	enter(ctx)
	checkStakingCoordinator(ctx)
	requireNormal(ctx)
	common.CheckHash160(owner)
	checkAmount(amount)

	debit(ctx, owner, amount)
	runtime.Notify(vaultconst.WithdrawEvent, owner, amount)
	payOut(ctx, owner, amount)

	leave(ctx)
}

// WithdrawAllFrom transfers the whole owner balance back to the owner and
// returns the withdrawn amount. It can be invoked by anyone on behalf of any
// owner, but only in CatastrophicFailure state. Zero balance is withdrawn
// without calling the asset contract.
//
// It produces Withdraw notification.
func WithdrawAllFrom(owner interop.Hash160) int {
	ctx := storage.GetContext()

	enter(ctx)
	requireCatastrophicFailure(ctx)
	common.CheckHash160(owner)

	amount := getInt(ctx, balanceKey(owner))

	debit(ctx, owner, amount)
	runtime.Notify(vaultconst.WithdrawEvent, owner, amount)
	if amount > 0 {
		payOut(ctx, owner, amount)
	}

	leave(ctx)

	return amount
}

// EnterCatastrophicFailure irreversibly switches the vault to the
// CatastrophicFailure state. It can be invoked only by an authorized party.
// Repeated invocation fails.
//
// It produces CatastrophicFailure notification.
func EnterCatastrophicFailure() {
	ctx := storage.GetContext()

	enter(ctx)
	caller := checkAuthorized(ctx)
	if lifecycleState(ctx) == vaultconst.StateCatastrophicFailure {
		panic(vaultconst.ErrAlreadyInFailureMode)
	}

	storage.Put(ctx, stateKey, vaultconst.StateCatastrophicFailure)
	runtime.Notify(vaultconst.CatastrophicFailureEvent, caller)
	runtime.Log("vault entered catastrophic failure mode")

	leave(ctx)
}

// BalanceOf returns the balance of the owner, zero for unknown owners.
func BalanceOf(owner interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return getInt(ctx, balanceKey(owner))
}

// TotalBalance returns the sum of all owner balances.
func TotalBalance() int {
	ctx := storage.GetReadOnlyContext()
	return getInt(ctx, totalKey)
}

// State returns current lifecycle state, see vaultconst.State* values.
func State() int {
	ctx := storage.GetReadOnlyContext()
	return lifecycleState(ctx)
}

// Asset returns the script hash of the managed NEP-17 asset.
func Asset() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, assetKey).(interop.Hash160)
}

// AssetProxy returns the script hash of the current transfer proxy.
func AssetProxy() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, proxyKey).(interop.Hash160)
}

// Authority returns the script hash of the authorization contract.
func Authority() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, authorityKey).(interop.Hash160)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// enter takes the reentrancy lock. Storage changes of a FAULTed invocation
// are discarded, so the lock never outlives a failed call.
func enter(ctx storage.Context) {
	if storage.Get(ctx, lockKey) != nil {
		panic(vaultconst.ErrReentrantCall)
	}
	storage.Put(ctx, lockKey, true)
}

func leave(ctx storage.Context) {
	storage.Delete(ctx, lockKey)
}

// callerHash returns the identity capabilities are checked for: the calling
// contract or, for direct invocations, the transaction sender.
func callerHash() interop.Hash160 {
	caller := runtime.GetCallingScriptHash()
	if caller.Equals(runtime.GetEntryScriptHash()) {
		return runtime.GetScriptContainer().Sender
	}

	return caller
}

func checkAuthorized(ctx storage.Context) interop.Hash160 {
	return checkCapability(ctx, "isAuthorized")
}

func checkStakingCoordinator(ctx storage.Context) interop.Hash160 {
	return checkCapability(ctx, "isStakingCoordinator")
}

func checkCapability(ctx storage.Context, method string) interop.Hash160 {
	caller := callerHash()
	if !runtime.CheckWitness(caller) {
		panic(vaultconst.ErrUnauthorized)
	}

	authority := storage.Get(ctx, authorityKey).(interop.Hash160)
	if !contract.Call(authority, method, contract.ReadOnly, caller).(bool) {
		panic(vaultconst.ErrUnauthorized)
	}

	return caller
}

func lifecycleState(ctx storage.Context) int {
	return getInt(ctx, stateKey)
}

func requireNormal(ctx storage.Context) {
	if lifecycleState(ctx) != vaultconst.StateNormal {
		panic(vaultconst.ErrInCatastrophicFailure)
	}
}

func requireCatastrophicFailure(ctx storage.Context) {
	if lifecycleState(ctx) != vaultconst.StateCatastrophicFailure {
		panic(vaultconst.ErrNotInCatastrophicFailure)
	}
}

func checkAmount(amount int) {
	if amount < 0 {
		panic(vaultconst.ErrInvalidAmount)
	}
}

func payOut(ctx storage.Context, owner interop.Hash160, amount int) {
	var (
		asset = storage.Get(ctx, assetKey).(interop.Hash160)
		self  = runtime.GetExecutingScriptHash()
	)

	ok := contract.Call(asset, "transfer", contract.All, self, owner, amount, nil).(bool)
	if !ok {
		panic(vaultconst.ErrExternalTransferFailed)
	}
}

func credit(ctx storage.Context, owner interop.Hash160, amount int) {
	var (
		key     = balanceKey(owner)
		total   = checkedAdd(getInt(ctx, totalKey), amount)
		balance = checkedAdd(getInt(ctx, key), amount)
	)

	storage.Put(ctx, key, balance)
	storage.Put(ctx, totalKey, total)
}

func debit(ctx storage.Context, owner interop.Hash160, amount int) {
	var (
		key     = balanceKey(owner)
		balance = checkedSub(getInt(ctx, key), amount)
		total   = checkedSub(getInt(ctx, totalKey), amount)
	)

	if balance == 0 {
		storage.Delete(ctx, key)
	} else {
		storage.Put(ctx, key, balance)
	}
	storage.Put(ctx, totalKey, total)
}

func checkedAdd(a, b int) int {
	if b > maxAmount()-a {
		panic(vaultconst.ErrArithmeticOverflow)
	}
	return a + b
}

func checkedSub(a, b int) int {
	if b > a {
		panic(vaultconst.ErrInsufficientBalance)
	}
	return a - b
}

func maxAmount() int {
	shift := maxAmountHalfShift
	half := 1 << shift
	return half - 1 + half
}

func balanceKey(owner interop.Hash160) []byte {
	return append([]byte{balancePrefix}, owner...)
}

func getInt(ctx storage.Context, key any) int {
	data := storage.Get(ctx, key)
	if data != nil {
		return data.(int)
	}

	return 0
}
