package badproxy

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Behaviour of TransferFrom.
const (
	ModeFail    = 0
	ModeReenter = 1
	ModeObserve = 2
)

const (
	modeKey     = "mode"
	observedKey = "observed"
)

func SetMode(mode int) {
	storage.Put(storage.GetContext(), modeKey, mode)
}

// TransferFrom pretends to be a transfer proxy. Depending on the mode it
// reports failure, calls back the vault (passed as `to`) or records the
// balance the vault reports for `from` and then transfers for real.
func TransferFrom(asset, from, to interop.Hash160, amount int) bool {
	ctx := storage.GetContext()

	mode := ModeFail
	data := storage.Get(ctx, modeKey)
	if data != nil {
		mode = data.(int)
	}

	switch mode {
	case ModeReenter:
		contract.Call(to, "withdrawFrom", contract.All, from, amount)
		return true
	case ModeObserve:
		observed := contract.Call(to, "balanceOf", contract.ReadOnly, from).(int)
		storage.Put(ctx, observedKey, observed)
		return contract.Call(asset, "transfer", contract.All, from, to, amount, nil).(bool)
	default:
		return false
	}
}

func Observed() int {
	data := storage.Get(storage.GetReadOnlyContext(), observedKey)
	if data == nil {
		return -1
	}
	return data.(int)
}
