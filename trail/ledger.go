/*
Package trail reconstructs the Vault ledger from its notifications.

Every state change of the Vault is accompanied by a notification, so the
whole ledger can be replayed from the application logs of the chain and then
compared with the state the contract reports.
*/
package trail

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/stake-vault/contracts/vault/vaultconst"
	vaultrpc "github.com/nspcc-dev/stake-vault/rpc/vault"
)

// Ledger is a replayed copy of the Vault ledger. It is safe for concurrent
// use.
type Ledger struct {
	vault util.Uint160

	mtx      sync.RWMutex
	balances map[util.Uint160]*big.Int
	total    *big.Int
	failed   bool
	proxy    util.Uint160
	events   int

	journal *journal
}

// NewLedger returns empty ledger of the Vault deployed at the given hash.
func NewLedger(vault util.Uint160) *Ledger {
	return &Ledger{
		vault:    vault,
		balances: make(map[util.Uint160]*big.Int),
		total:    new(big.Int),
	}
}

// Vault returns hash of the replayed contract.
func (l *Ledger) Vault() util.Uint160 {
	return l.vault
}

// Apply replays Vault notifications of the successful executions from the
// application logs. Notifications of other contracts are skipped. Logs are
// applied atomically: if any notification fails, the ledger is left as it
// was before the call. It returns the number of applied notifications.
func (l *Ledger) Apply(logs ...*result.ApplicationLog) (int, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	j := l.begin()

	var n int
	for _, log := range logs {
		if log == nil {
			continue
		}
		for _, ex := range log.Executions {
			if ex.VMState != vmstate.Halt {
				continue
			}
			for i := range ex.Events {
				ok, err := l.apply(ex.Events[i])
				if err != nil {
					l.rollback(j)
					return 0, fmt.Errorf("container %s: %w", log.Container.StringLE(), err)
				}
				if ok {
					n++
				}
			}
		}
	}

	l.journal = nil
	return n, nil
}

// ApplyEvent replays single notification. It returns false if the
// notification does not belong to the Vault.
func (l *Ledger) ApplyEvent(e state.NotificationEvent) (bool, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	j := l.begin()
	ok, err := l.apply(e)
	if err != nil {
		l.rollback(j)
		return false, err
	}

	l.journal = nil
	return ok, nil
}

// journal keeps the ledger state preceding the changes being applied.
type journal struct {
	balances map[util.Uint160]*big.Int
	total    *big.Int
	failed   bool
	proxy    util.Uint160
	events   int
}

func (l *Ledger) begin() *journal {
	l.journal = &journal{
		balances: make(map[util.Uint160]*big.Int),
		total:    l.total,
		failed:   l.failed,
		proxy:    l.proxy,
		events:   l.events,
	}
	return l.journal
}

func (l *Ledger) rollback(j *journal) {
	for owner, balance := range j.balances {
		if balance == nil {
			delete(l.balances, owner)
			continue
		}
		l.balances[owner] = balance
	}

	l.total = j.total
	l.failed = j.failed
	l.proxy = j.proxy
	l.events = j.events
	l.journal = nil
}

func (l *Ledger) apply(e state.NotificationEvent) (bool, error) {
	if !e.ScriptHash.Equals(l.vault) {
		return false, nil
	}

	var err error
	switch e.Name {
	case vaultconst.DepositEvent:
		ev := new(vaultrpc.DepositEvent)
		if err = ev.FromStackItem(e.Item); err == nil {
			err = l.credit(ev.Owner, ev.Amount)
		}
	case vaultconst.WithdrawEvent:
		ev := new(vaultrpc.WithdrawEvent)
		if err = ev.FromStackItem(e.Item); err == nil {
			err = l.debit(ev.Owner, ev.Amount)
		}
	case vaultconst.AssetProxyChangedEvent:
		ev := new(vaultrpc.AssetProxyChangedEvent)
		if err = ev.FromStackItem(e.Item); err == nil {
			l.proxy = ev.NewProxy
		}
	case vaultconst.CatastrophicFailureEvent:
		if l.failed {
			err = vaultrpc.ErrAlreadyInFailureMode
		}
		l.failed = true
	default:
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s notification #%d: %w", e.Name, l.events, err)
	}

	l.events++
	return true, nil
}

func (l *Ledger) credit(owner util.Uint160, amount *big.Int) error {
	total, err := SafeAdd(l.total, amount)
	if err != nil {
		return err
	}
	balance, err := SafeAdd(l.balances[owner], amount)
	if err != nil {
		return err
	}

	l.set(owner, balance)
	l.total = total
	return nil
}

func (l *Ledger) debit(owner util.Uint160, amount *big.Int) error {
	balance, err := SafeSub(l.balances[owner], amount)
	if err != nil {
		return err
	}
	total, err := SafeSub(l.total, amount)
	if err != nil {
		return err
	}

	l.set(owner, balance)
	l.total = total
	return nil
}

func (l *Ledger) set(owner util.Uint160, balance *big.Int) {
	if l.journal != nil {
		if _, ok := l.journal.balances[owner]; !ok {
			l.journal.balances[owner] = l.balances[owner]
		}
	}

	if balance.Sign() == 0 {
		delete(l.balances, owner)
		return
	}
	l.balances[owner] = balance
}

// Balance returns replayed balance of the owner.
func (l *Ledger) Balance(owner util.Uint160) *big.Int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return new(big.Int).Set(orZero(l.balances[owner]))
}

// Total returns the sum of replayed balances.
func (l *Ledger) Total() *big.Int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return new(big.Int).Set(l.total)
}

// Owners returns owners with non-zero balance in ascending order.
func (l *Ledger) Owners() []util.Uint160 {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return l.owners()
}

func (l *Ledger) owners() []util.Uint160 {
	res := make([]util.Uint160, 0, len(l.balances))
	for owner := range l.balances {
		res = append(res, owner)
	}
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].BytesBE(), res[j].BytesBE()) < 0
	})
	return res
}

// InCatastrophicFailure reports whether CatastrophicFailure notification has
// been replayed.
func (l *Ledger) InCatastrophicFailure() bool {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return l.failed
}

// Proxy returns the last proxy set by AssetProxyChanged notification. The
// second value is false if the proxy has never been changed since deployment.
func (l *Ledger) Proxy() (util.Uint160, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return l.proxy, !l.proxy.Equals(util.Uint160{})
}

// Events returns the number of replayed notifications.
func (l *Ledger) Events() int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return l.events
}

// Digest is a SHA-256 hash of the ledger contents.
type Digest [32]byte

// String returns base58 representation of the digest.
func (d Digest) String() string {
	return base58.Encode(d[:])
}

// Digest returns the hash of all non-zero balances ordered by owner. Equal
// ledgers have equal digests regardless of the history that led to them.
func (l *Ledger) Digest() Digest {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	w := io.NewBufBinWriter()
	for _, owner := range l.owners() {
		w.WriteBytes(owner.BytesBE())
		w.WriteVarBytes(bigint.ToBytes(l.balances[owner]))
	}

	return Digest(hash.Sha256(w.Bytes()))
}
