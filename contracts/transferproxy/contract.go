package transferproxy

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/stake-vault/common"
)

// nolint:unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	runtime.Log("transfer proxy contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(nefFile, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("transfer proxy contract updated")
}

// TransferFrom moves amount of the NEP-17 asset from one account to another
// and returns the result of the asset transfer. The asset contract checks
// witness of the sender, so the sender must sign the transaction with a scope
// covering the asset call.
func TransferFrom(asset, from, to interop.Hash160, amount int) bool {
	common.CheckHash160(asset)
	common.CheckHash160(from)
	common.CheckHash160(to)

	if amount < 0 {
		panic("negative amount")
	}

	return contract.Call(asset, "transfer", contract.All, from, to, amount, nil).(bool)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}
