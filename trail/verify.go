package trail

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Reader provides the on-chain view of the Vault, see vault.ContractReader.
type Reader interface {
	BalanceOf(owner util.Uint160) (*big.Int, error)
	TotalBalance() (*big.Int, error)
	InCatastrophicFailure() (bool, error)
}

// Mismatch describes the owner whose replayed balance differs from the
// on-chain one.
type Mismatch struct {
	Owner    util.Uint160
	Replayed *big.Int
	OnChain  *big.Int
}

// Report is a result of the ledger verification.
type Report struct {
	Owners     int
	Mismatches []Mismatch

	ReplayedTotal *big.Int
	OnChainTotal  *big.Int

	ReplayedFailure bool
	OnChainFailure  bool

	Digest Digest
}

// OK returns true if the replayed ledger fully matches the contract state.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0 &&
		r.ReplayedTotal.Cmp(r.OnChainTotal) == 0 &&
		r.ReplayedFailure == r.OnChainFailure
}

// Verify compares the replayed ledger with the contract state. Only owners
// known to the ledger are checked, extra on-chain balances are detected by
// the total mismatch.
func (l *Ledger) Verify(r Reader) (*Report, error) {
	owners := l.Owners()

	rep := &Report{
		Owners:          len(owners),
		ReplayedTotal:   l.Total(),
		ReplayedFailure: l.InCatastrophicFailure(),
		Digest:          l.Digest(),
	}

	for _, owner := range owners {
		onChain, err := r.BalanceOf(owner)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", owner.StringLE(), err)
		}

		replayed := l.Balance(owner)
		if replayed.Cmp(onChain) != 0 {
			rep.Mismatches = append(rep.Mismatches, Mismatch{
				Owner:    owner,
				Replayed: replayed,
				OnChain:  onChain,
			})
		}
	}

	var err error
	rep.OnChainTotal, err = r.TotalBalance()
	if err != nil {
		return nil, fmt.Errorf("total balance: %w", err)
	}

	rep.OnChainFailure, err = r.InCatastrophicFailure()
	if err != nil {
		return nil, fmt.Errorf("lifecycle state: %w", err)
	}

	return rep, nil
}
