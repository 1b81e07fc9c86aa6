/*
Package vaulttest provides neotest helpers deploying the Vault contract along
with its collaborators to a single-node test chain.
*/
package vaulttest

import (
	"math/big"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

// Relative to the repository root.
const (
	VaultPath       = "contracts/vault"
	AuthorityPath   = "contracts/authority"
	ProxyPath       = "contracts/transferproxy"
	BadProxyPath    = "internal/testcontracts/badproxy"
	configFileName  = "config.yml"
	repoRootFromDir = "../.."
)

// Path returns absolute path to the contract directory given relative to the
// repository root, so helpers work from any test package.
func Path(rel string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), repoRootFromDir, rel)
}

// NewExecutor returns executor of the fresh single-node chain.
func NewExecutor(t testing.TB) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

// Compile compiles contract located at rel path from the repository root.
func Compile(t testing.TB, e *neotest.Executor, rel string) *neotest.Contract {
	dir := Path(rel)
	return neotest.CompileFile(t, e.CommitteeHash, dir, filepath.Join(dir, configFileName))
}

// DeployAuthority deploys Authority contract with the given staking
// coordinator.
func DeployAuthority(t testing.TB, e *neotest.Executor, coordinator util.Uint160) util.Uint160 {
	c := Compile(t, e, AuthorityPath)
	e.DeployContract(t, c, []any{coordinator})
	return c.Hash
}

// DeployTransferProxy deploys new instance of Transfer Proxy contract. Every
// call deploys from a fresh account, so one chain can hold many proxies.
func DeployTransferProxy(t testing.TB, e *neotest.Executor) util.Uint160 {
	return deployFromNewAccount(t, e, ProxyPath, nil)
}

// DeployBadProxy deploys new instance of misbehaving transfer proxy switched
// to the given mode.
func DeployBadProxy(t testing.TB, e *neotest.Executor, mode int64) util.Uint160 {
	h := deployFromNewAccount(t, e, BadProxyPath, nil)
	e.CommitteeInvoker(h).Invoke(t, stackitem.Null{}, "setMode", mode)
	return h
}

// deployFromNewAccount deploys the contract by a new funded account. Contract
// hash depends on the sender, compiled contracts are cached per path, so the
// hash is recalculated for the actual sender.
func deployFromNewAccount(t testing.TB, e *neotest.Executor, rel string, data any) util.Uint160 {
	var (
		compiled = Compile(t, e, rel)
		sender   = e.NewAccount(t)
		c        = &neotest.Contract{
			Hash:     state.CreateContractHash(sender.ScriptHash(), compiled.NEF.Checksum, compiled.Manifest.Name),
			NEF:      compiled.NEF,
			Manifest: compiled.Manifest,
		}
	)

	e.DeployContractBy(t, sender, c, data)
	return c.Hash
}

// DeployVault deploys Vault contract bound to the given collaborators.
func DeployVault(t testing.TB, e *neotest.Executor, authority, proxy, asset util.Uint160) util.Uint160 {
	c := Compile(t, e, VaultPath)
	e.DeployContract(t, c, []any{authority, proxy, asset})
	return c.Hash
}

// Env is a test chain with the Vault holding GAS, the Authority contract
// and the reference Transfer Proxy.
type Env struct {
	*neotest.Executor

	// Coordinator is the staking coordinator account.
	Coordinator neotest.Signer
	// Guardian is an authorized account.
	Guardian neotest.Signer

	Authority util.Uint160
	Proxy     util.Uint160
	Vault     util.Uint160
	GAS       util.Uint160
}

// NewEnv deploys all contracts to the fresh chain and returns their hashes.
func NewEnv(t testing.TB) *Env {
	e := NewExecutor(t)

	gasHash, err := e.Chain.GetNativeContractScriptHash(nativenames.Gas)
	require.NoError(t, err)

	env := &Env{
		Executor:    e,
		Coordinator: e.NewAccount(t),
		Guardian:    e.NewAccount(t),
		GAS:         gasHash,
	}

	env.Authority = DeployAuthority(t, e, env.Coordinator.ScriptHash())
	e.CommitteeInvoker(env.Authority).Invoke(t, stackitem.Null{}, "authorize", env.Guardian.ScriptHash())

	env.Proxy = DeployTransferProxy(t, e)
	env.Vault = DeployVault(t, e, env.Authority, env.Proxy, env.GAS)

	return env
}

// VaultInvoker returns invoker of the Vault contract, the first signer is
// the transaction sender.
func (env *Env) VaultInvoker(signers ...neotest.Signer) *neotest.ContractInvoker {
	return env.NewInvoker(env.Vault, signers...)
}

// CoordinatorInvoker returns Vault invoker sending transactions from the
// coordinator and co-signed by the owner, as deposits require.
func (env *Env) CoordinatorInvoker(owner neotest.Signer) *neotest.ContractInvoker {
	return env.VaultInvoker(env.Coordinator, owner)
}

// BalanceOf returns vault balance of the owner.
func (env *Env) BalanceOf(t testing.TB, owner util.Uint160) *big.Int {
	return testInvokeInt(t, env.VaultInvoker(env.Committee), "balanceOf", owner)
}

// TotalBalance returns sum of vault balances.
func (env *Env) TotalBalance(t testing.TB) *big.Int {
	return testInvokeInt(t, env.VaultInvoker(env.Committee), "totalBalance")
}

// GASBalance returns GAS balance of the account.
func (env *Env) GASBalance(t testing.TB, h util.Uint160) *big.Int {
	return testInvokeInt(t, env.CommitteeInvoker(env.GAS), "balanceOf", h)
}

func testInvokeInt(t testing.TB, inv *neotest.ContractInvoker, method string, args ...any) *big.Int {
	stack, err := inv.TestInvoke(t, method, args...)
	require.NoError(t, err)
	require.Equal(t, 1, stack.Len())
	return stack.Pop().BigInt()
}

// State returns lifecycle state of the vault.
func (env *Env) State(t testing.TB) int64 {
	return testInvokeInt(t, env.VaultInvoker(env.Committee), "state").Int64()
}
