package vault_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/stake-vault/common"
	"github.com/nspcc-dev/stake-vault/contracts/vault/vaultconst"
	"github.com/nspcc-dev/stake-vault/internal/testcontracts/badproxy"
	"github.com/nspcc-dev/stake-vault/internal/vaulttest"
	vaultrpc "github.com/nspcc-dev/stake-vault/rpc/vault"
	"github.com/stretchr/testify/require"
)

func appLog(t *testing.T, env *vaulttest.Env, h util.Uint256) *result.ApplicationLog {
	aer := env.GetTxExecResult(t, h)
	return &result.ApplicationLog{
		Container:  h,
		Executions: []state.Execution{aer.Execution},
	}
}

func requireInvariant(t *testing.T, env *vaulttest.Env) {
	total := env.TotalBalance(t)
	require.True(t, total.Sign() >= 0)
	require.True(t, total.Cmp(env.GASBalance(t, env.Vault)) <= 0,
		"vault holds less asset than it owes")
}

func TestDeploy(t *testing.T) {
	e := vaulttest.NewExecutor(t)
	c := vaulttest.Compile(t, e, vaulttest.VaultPath)

	e.DeployContractCheckFAULT(t, c, []any{util.Uint160{1}, []byte{1, 2, 3}, util.Uint160{3}}, common.ErrInvalidHash)
}

func TestVault_Reads(t *testing.T) {
	env := vaulttest.NewEnv(t)
	inv := env.VaultInvoker(env.NewAccount(t))

	inv.Invoke(t, vaultconst.StateNormal, "state")
	inv.Invoke(t, 0, "totalBalance")
	inv.Invoke(t, 0, "balanceOf", util.Uint160{1, 2, 3})
	inv.Invoke(t, stackitem.NewBuffer(env.GAS.BytesBE()), "asset")
	inv.Invoke(t, stackitem.NewBuffer(env.Proxy.BytesBE()), "assetProxy")
	inv.Invoke(t, stackitem.NewBuffer(env.Authority.BytesBE()), "authority")
	inv.Invoke(t, common.Version, "version")

	inv.InvokeFail(t, "only committee can update contract", "update", []byte{}, []byte{}, nil)
}

func TestVault_Scenario(t *testing.T) {
	env := vaulttest.NewEnv(t)

	var (
		owner    = env.NewAccount(t)
		stranger = env.VaultInvoker(env.NewAccount(t))
		coord    = env.CoordinatorInvoker(owner)
		guardian = env.VaultInvoker(env.Guardian)
		initial  = env.GASBalance(t, owner.ScriptHash())
	)

	coord.Invoke(t, stackitem.Null{}, "depositFrom", owner.ScriptHash(), 100)
	require.EqualValues(t, 100, env.BalanceOf(t, owner.ScriptHash()).Int64())
	require.EqualValues(t, 100, env.GASBalance(t, env.Vault).Int64())

	coord.Invoke(t, stackitem.Null{}, "withdrawFrom", owner.ScriptHash(), 40)
	require.EqualValues(t, 60, env.BalanceOf(t, owner.ScriptHash()).Int64())
	require.EqualValues(t, 60, env.TotalBalance(t).Int64())
	requireInvariant(t, env)

	guardian.Invoke(t, stackitem.Null{}, "enterCatastrophicFailure")
	guardian.Invoke(t, vaultconst.StateCatastrophicFailure, "state")

	coord.InvokeFail(t, vaultconst.ErrInCatastrophicFailure, "depositFrom", owner.ScriptHash(), 1)

	stranger.Invoke(t, 60, "withdrawAllFrom", owner.ScriptHash())
	require.EqualValues(t, 0, env.BalanceOf(t, owner.ScriptHash()).Int64())
	require.EqualValues(t, 0, env.TotalBalance(t).Int64())

	stranger.Invoke(t, 0, "withdrawAllFrom", owner.ScriptHash())

	require.Equal(t, initial, env.GASBalance(t, owner.ScriptHash()))
	requireInvariant(t, env)
}

func TestVault_AccessControl(t *testing.T) {
	env := vaulttest.NewEnv(t)

	var (
		owner    = env.NewAccount(t)
		stranger = env.VaultInvoker(env.NewAccount(t), owner)
		guardian = env.VaultInvoker(env.Guardian, owner)
		coord    = env.CoordinatorInvoker(owner)
	)

	t.Run("deposit", func(t *testing.T) {
		stranger.InvokeFail(t, vaultconst.ErrUnauthorized, "depositFrom", owner.ScriptHash(), 1)
		guardian.InvokeFail(t, vaultconst.ErrUnauthorized, "depositFrom", owner.ScriptHash(), 1)
	})

	coord.Invoke(t, stackitem.Null{}, "depositFrom", owner.ScriptHash(), 10)

	t.Run("withdraw", func(t *testing.T) {
		stranger.InvokeFail(t, vaultconst.ErrUnauthorized, "withdrawFrom", owner.ScriptHash(), 1)
		guardian.InvokeFail(t, vaultconst.ErrUnauthorized, "withdrawFrom", owner.ScriptHash(), 1)
	})

	t.Run("configure proxy", func(t *testing.T) {
		stranger.InvokeFail(t, vaultconst.ErrUnauthorized, "configureAssetProxy", util.Uint160{1})
		coord.InvokeFail(t, vaultconst.ErrUnauthorized, "configureAssetProxy", util.Uint160{1})
	})

	t.Run("failure mode", func(t *testing.T) {
		stranger.InvokeFail(t, vaultconst.ErrUnauthorized, "enterCatastrophicFailure")
		coord.InvokeFail(t, vaultconst.ErrUnauthorized, "enterCatastrophicFailure")
	})

	t.Run("revoked", func(t *testing.T) {
		revoked := env.NewAccount(t)
		committee := env.CommitteeInvoker(env.Authority)
		committee.Invoke(t, stackitem.Null{}, "authorize", revoked.ScriptHash())
		committee.Invoke(t, stackitem.Null{}, "revoke", revoked.ScriptHash())

		env.VaultInvoker(revoked).InvokeFail(t, vaultconst.ErrUnauthorized, "enterCatastrophicFailure")
	})

	require.EqualValues(t, 10, env.BalanceOf(t, owner.ScriptHash()).Int64())
	env.VaultInvoker(env.Committee).Invoke(t, vaultconst.StateNormal, "state")
}

func TestVault_Ledger(t *testing.T) {
	env := vaulttest.NewEnv(t)

	var (
		alice = env.NewAccount(t)
		bob   = env.NewAccount(t)
		ca    = env.CoordinatorInvoker(alice)
		cb    = env.CoordinatorInvoker(bob)
	)

	ca.Invoke(t, stackitem.Null{}, "depositFrom", alice.ScriptHash(), 100)
	cb.Invoke(t, stackitem.Null{}, "depositFrom", bob.ScriptHash(), 50)
	require.EqualValues(t, 150, env.TotalBalance(t).Int64())

	t.Run("insufficient balance", func(t *testing.T) {
		ca.InvokeFail(t, vaultconst.ErrInsufficientBalance, "withdrawFrom", alice.ScriptHash(), 101)
		require.EqualValues(t, 100, env.BalanceOf(t, alice.ScriptHash()).Int64())
	})

	t.Run("invalid amount", func(t *testing.T) {
		ca.InvokeFail(t, vaultconst.ErrInvalidAmount, "depositFrom", alice.ScriptHash(), -1)
		ca.InvokeFail(t, vaultconst.ErrInvalidAmount, "withdrawFrom", alice.ScriptHash(), -1)
	})

	t.Run("invalid owner", func(t *testing.T) {
		ca.InvokeFail(t, common.ErrInvalidHash, "depositFrom", []byte{1, 2, 3}, 1)
	})

	t.Run("overflow", func(t *testing.T) {
		max := new(big.Int).Lsh(big.NewInt(1), 255)
		max.Sub(max, big.NewInt(1))

		huge := new(big.Int).Sub(max, big.NewInt(149))
		ca.InvokeFail(t, vaultconst.ErrArithmeticOverflow, "depositFrom", alice.ScriptHash(), huge)
		require.EqualValues(t, 100, env.BalanceOf(t, alice.ScriptHash()).Int64())
	})

	t.Run("zero amount", func(t *testing.T) {
		ca.Invoke(t, stackitem.Null{}, "depositFrom", alice.ScriptHash(), 0)
		ca.Invoke(t, stackitem.Null{}, "withdrawFrom", alice.ScriptHash(), 0)
		require.EqualValues(t, 100, env.BalanceOf(t, alice.ScriptHash()).Int64())
	})

	ca.Invoke(t, stackitem.Null{}, "withdrawFrom", alice.ScriptHash(), 100)
	require.EqualValues(t, 0, env.BalanceOf(t, alice.ScriptHash()).Int64())
	require.EqualValues(t, 50, env.BalanceOf(t, bob.ScriptHash()).Int64())
	require.EqualValues(t, 50, env.TotalBalance(t).Int64())
	requireInvariant(t, env)
}

func TestVault_CatastrophicFailure(t *testing.T) {
	env := vaulttest.NewEnv(t)

	var (
		owner    = env.NewAccount(t)
		coord    = env.CoordinatorInvoker(owner)
		guardian = env.VaultInvoker(env.Guardian)
		anyone   = env.VaultInvoker(env.NewAccount(t))
	)

	coord.Invoke(t, stackitem.Null{}, "depositFrom", owner.ScriptHash(), 30)

	anyone.InvokeFail(t, vaultconst.ErrNotInCatastrophicFailure, "withdrawAllFrom", owner.ScriptHash())

	h := guardian.Invoke(t, stackitem.Null{}, "enterCatastrophicFailure")
	events, err := vaultrpc.CatastrophicFailureEventsFromApplicationLog(appLog(t, env, h))
	require.NoError(t, err)
	require.Equal(t, []*vaultrpc.CatastrophicFailureEvent{{By: env.Guardian.ScriptHash()}}, events)

	guardian.InvokeFail(t, vaultconst.ErrAlreadyInFailureMode, "enterCatastrophicFailure")

	coord.InvokeFail(t, vaultconst.ErrInCatastrophicFailure, "depositFrom", owner.ScriptHash(), 1)
	coord.InvokeFail(t, vaultconst.ErrInCatastrophicFailure, "withdrawFrom", owner.ScriptHash(), 1)
	guardian.InvokeFail(t, vaultconst.ErrInCatastrophicFailure, "configureAssetProxy", util.Uint160{1})

	// capability is checked before lifecycle state
	anyone.InvokeFail(t, vaultconst.ErrUnauthorized, "withdrawFrom", owner.ScriptHash(), 1)

	h = anyone.Invoke(t, 30, "withdrawAllFrom", owner.ScriptHash())
	withdrawals, err := vaultrpc.WithdrawEventsFromApplicationLog(appLog(t, env, h))
	require.NoError(t, err)
	require.Equal(t, []*vaultrpc.WithdrawEvent{{Owner: owner.ScriptHash(), Amount: big.NewInt(30)}}, withdrawals)

	h = anyone.Invoke(t, 0, "withdrawAllFrom", owner.ScriptHash())
	aer := env.GetTxExecResult(t, h)
	require.Len(t, aer.Events, 1)
	require.Equal(t, vaultconst.WithdrawEvent, aer.Events[0].Name)

	anyone.Invoke(t, 0, "withdrawAllFrom", util.Uint160{1, 2, 3})
	anyone.Invoke(t, vaultconst.StateCatastrophicFailure, "state")
	requireInvariant(t, env)
}

func TestVault_Events(t *testing.T) {
	env := vaulttest.NewEnv(t)

	owner := env.NewAccount(t)
	coord := env.CoordinatorInvoker(owner)

	h := coord.Invoke(t, stackitem.Null{}, "depositFrom", owner.ScriptHash(), 25)
	aer := env.GetTxExecResult(t, h)
	require.Len(t, aer.Events, 2)
	require.Equal(t, vaultconst.DepositEvent, aer.Events[0].Name)
	require.Equal(t, env.Vault, aer.Events[0].ScriptHash)
	require.Equal(t, "Transfer", aer.Events[1].Name)
	require.Equal(t, env.GAS, aer.Events[1].ScriptHash)

	deposits, err := vaultrpc.DepositEventsFromApplicationLog(appLog(t, env, h))
	require.NoError(t, err)
	require.Equal(t, []*vaultrpc.DepositEvent{{Owner: owner.ScriptHash(), Amount: big.NewInt(25)}}, deposits)

	h = coord.Invoke(t, stackitem.Null{}, "withdrawFrom", owner.ScriptHash(), 5)
	aer = env.GetTxExecResult(t, h)
	require.Len(t, aer.Events, 2)
	require.Equal(t, vaultconst.WithdrawEvent, aer.Events[0].Name)
	require.Equal(t, "Transfer", aer.Events[1].Name)

	proxy := vaulttest.DeployTransferProxy(t, env.Executor)
	h = env.VaultInvoker(env.Guardian).Invoke(t, stackitem.Null{}, "configureAssetProxy", proxy)
	changes, err := vaultrpc.AssetProxyChangedEventsFromApplicationLog(appLog(t, env, h))
	require.NoError(t, err)
	require.Equal(t, []*vaultrpc.AssetProxyChangedEvent{{NewProxy: proxy}}, changes)
	env.VaultInvoker(env.Guardian).Invoke(t, stackitem.NewBuffer(proxy.BytesBE()), "assetProxy")

	coord.Invoke(t, stackitem.Null{}, "depositFrom", owner.ScriptHash(), 5)
	require.EqualValues(t, 25, env.BalanceOf(t, owner.ScriptHash()).Int64())
}

func TestVault_MisbehavingProxy(t *testing.T) {
	env := vaulttest.NewEnv(t)

	owner := env.NewAccount(t)
	coord := env.CoordinatorInvoker(owner)
	guardian := env.VaultInvoker(env.Guardian)

	coord.Invoke(t, stackitem.Null{}, "depositFrom", owner.ScriptHash(), 50)

	t.Run("transfer failure", func(t *testing.T) {
		proxy := vaulttest.DeployBadProxy(t, env.Executor, badproxy.ModeFail)
		guardian.Invoke(t, stackitem.Null{}, "configureAssetProxy", proxy)

		coord.InvokeFail(t, vaultconst.ErrExternalTransferFailed, "depositFrom", owner.ScriptHash(), 10)
		require.EqualValues(t, 50, env.BalanceOf(t, owner.ScriptHash()).Int64())
		require.EqualValues(t, 50, env.TotalBalance(t).Int64())
	})

	t.Run("reentrancy", func(t *testing.T) {
		proxy := vaulttest.DeployBadProxy(t, env.Executor, badproxy.ModeReenter)
		guardian.Invoke(t, stackitem.Null{}, "configureAssetProxy", proxy)

		coord.InvokeFail(t, vaultconst.ErrReentrantCall, "depositFrom", owner.ScriptHash(), 10)
		require.EqualValues(t, 50, env.BalanceOf(t, owner.ScriptHash()).Int64())
	})

	t.Run("read during transfer", func(t *testing.T) {
		proxy := vaulttest.DeployBadProxy(t, env.Executor, badproxy.ModeObserve)
		guardian.Invoke(t, stackitem.Null{}, "configureAssetProxy", proxy)

		coord.Invoke(t, stackitem.Null{}, "depositFrom", owner.ScriptHash(), 10)
		env.CommitteeInvoker(proxy).Invoke(t, 60, "observed")
		require.EqualValues(t, 60, env.BalanceOf(t, owner.ScriptHash()).Int64())
	})

	requireInvariant(t, env)
}

func TestVault_OnNEP17Payment(t *testing.T) {
	env := vaulttest.NewEnv(t)

	neoHash, err := env.Chain.GetNativeContractScriptHash(nativenames.Neo)
	require.NoError(t, err)

	neoInv := env.ValidatorInvoker(neoHash)
	neoInv.InvokeFail(t, vaultconst.ErrForeignAsset, "transfer",
		env.Validator.ScriptHash(), env.Vault, 1, nil)

	gasInv := env.CommitteeInvoker(env.GAS)
	gasInv.Invoke(t, true, "transfer", env.Committee.ScriptHash(), env.Vault, 7, nil)

	require.EqualValues(t, 7, env.GASBalance(t, env.Vault).Int64())
	require.EqualValues(t, 0, env.TotalBalance(t).Int64())
	requireInvariant(t, env)
}

func TestVault_CoordinatorChange(t *testing.T) {
	env := vaulttest.NewEnv(t)

	owner := env.NewAccount(t)
	coord := env.CoordinatorInvoker(owner)
	coord.Invoke(t, stackitem.Null{}, "depositFrom", owner.ScriptHash(), 20)

	next := env.NewAccount(t)
	env.CommitteeInvoker(env.Authority).Invoke(t, stackitem.Null{}, "setStakingCoordinator", next.ScriptHash())

	coord.InvokeFail(t, vaultconst.ErrUnauthorized, "withdrawFrom", owner.ScriptHash(), 20)
	env.VaultInvoker(next).Invoke(t, stackitem.Null{}, "withdrawFrom", owner.ScriptHash(), 20)
	require.EqualValues(t, 0, env.BalanceOf(t, owner.ScriptHash()).Int64())
}

func TestVault_Update(t *testing.T) {
	env := vaulttest.NewEnv(t)
	c := vaulttest.Compile(t, env.Executor, vaulttest.VaultPath)

	rawNef, err := c.NEF.Bytes()
	require.NoError(t, err)
	rawManifest, err := json.Marshal(c.Manifest)
	require.NoError(t, err)

	env.VaultInvoker(env.Guardian).InvokeFail(t, "only committee can update contract", "update", rawNef, rawManifest, nil)
	env.CommitteeInvoker(env.Vault).InvokeFail(t, common.ErrAlreadyUpdated, "update", rawNef, rawManifest, nil)
}
