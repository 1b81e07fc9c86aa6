package authority

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/stake-vault/common"
)

const (
	authorizedPrefix = 'a'
	coordinatorKey   = "c"
)

// nolint:unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	if data != nil {
		args := data.(struct {
			coordinator interop.Hash160
		})

		common.CheckHash160(args.coordinator)
		storage.Put(ctx, coordinatorKey, args.coordinator)
	}

	runtime.Log("authority contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(nefFile, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("authority contract updated")
}

// IsAuthorized returns true if the identity is in the authorized set.
func IsAuthorized(h interop.Hash160) bool {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, append([]byte{authorizedPrefix}, h...)) != nil
}

// IsStakingCoordinator returns true if the identity is the staking coordinator.
func IsStakingCoordinator(h interop.Hash160) bool {
	ctx := storage.GetReadOnlyContext()
	data := storage.Get(ctx, coordinatorKey)
	if data == nil {
		return false
	}

	return data.(interop.Hash160).Equals(h)
}

// StakingCoordinator returns the staking coordinator or nil if it is not set.
func StakingCoordinator() interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	data := storage.Get(ctx, coordinatorKey)
	if data == nil {
		return nil
	}

	return data.(interop.Hash160)
}

// ListAuthorized returns iterator over the authorized identities.
func ListAuthorized() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{authorizedPrefix}, storage.KeysOnly|storage.RemovePrefix)
}

// Authorize adds the identity to the authorized set. It can be invoked only
// by committee.
//
// It produces Authorized notification.
func Authorize(h interop.Hash160) {
	common.CheckCommitteeWitness()
	common.CheckHash160(h)

	ctx := storage.GetContext()
	storage.Put(ctx, append([]byte{authorizedPrefix}, h...), true)

	runtime.Notify("Authorized", h)
}

// Revoke removes the identity from the authorized set. It can be invoked only
// by committee.
//
// It produces Revoked notification.
func Revoke(h interop.Hash160) {
	common.CheckCommitteeWitness()
	common.CheckHash160(h)

	ctx := storage.GetContext()
	storage.Delete(ctx, append([]byte{authorizedPrefix}, h...))

	runtime.Notify("Revoked", h)
}

// SetStakingCoordinator designates the only identity allowed to move funds
// in the vaults relying on this contract. It can be invoked only by committee.
//
// It produces StakingCoordinatorChanged notification.
func SetStakingCoordinator(h interop.Hash160) {
	common.CheckCommitteeWitness()
	common.CheckHash160(h)

	ctx := storage.GetContext()
	storage.Put(ctx, coordinatorKey, h)

	runtime.Notify("StakingCoordinatorChanged", h)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}
