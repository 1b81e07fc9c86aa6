/*
Package vault implements Vault contract which holds a single NEP-17 asset in
custody on behalf of its owners.

Owner balances are moved only by the staking coordinator, a single identity
designated by the authorization contract. The coordinator deposits assets
pulled from the owner through a transfer proxy and withdraws them back to the
owner. The vault itself never decides how much to move, it only keeps the
ledger consistent with the actual asset movements.

An authorized party may switch the vault into catastrophic failure mode. The
switch is irreversible: deposits, withdrawals and proxy reconfiguration are
disabled forever, while anyone can trigger withdrawal of the whole balance of
any owner back to that owner.

Every mutating method updates the ledger before calling other contracts and
holds a reentrancy lock until it returns, so a nested call can only read the
already updated state.

# Contract notifications

AssetProxyChanged notification. This notification is produced when the
transfer proxy is replaced.

	AssetProxyChanged:
	  - name: newProxy
	    type: Hash160

Deposit notification. This notification is produced when the owner balance is
credited.

	Deposit:
	  - name: owner
	    type: Hash160
	  - name: amount
	    type: Integer

Withdraw notification. This notification is produced when the owner balance is
debited, both by the coordinator and by the emergency withdrawal.

	Withdraw:
	  - name: owner
	    type: Hash160
	  - name: amount
	    type: Integer

CatastrophicFailure notification. This notification is produced once, when the
vault enters catastrophic failure mode.

	CatastrophicFailure:
	  - name: by
	    type: Hash160
*/
package vault

/*
Contract storage model.

# Summary
Key-value storage format:
  - 'o' -> interop.Hash160
    authorization contract
  - 'p' -> interop.Hash160
    transfer proxy contract
  - 'a' -> interop.Hash160
    managed NEP-17 asset contract
  - 's' -> int
    lifecycle state, missing for Normal
  - 'l' -> bool
    reentrancy lock, present only during mutating invocations
  - 't' -> int
    sum of all balances
  - 'b'<interop.Hash160> -> int
    balance of the owner, missing for zero balance
*/
