/*
Package authority implements Authority contract which answers capability
questions of the Vault contract.

The contract keeps a committee-managed set of authorized identities, which may
reconfigure vaults and switch them into catastrophic failure mode, and a single
staking coordinator identity, which moves owner funds in Normal state.

# Contract notifications

Authorized notification. This notification is produced when an identity is
added to the authorized set.

	Authorized:
	  - name: identity
	    type: Hash160

Revoked notification. This notification is produced when an identity is
removed from the authorized set.

	Revoked:
	  - name: identity
	    type: Hash160

StakingCoordinatorChanged notification. This notification is produced when a
new staking coordinator is designated.

	StakingCoordinatorChanged:
	  - name: coordinator
	    type: Hash160
*/
package authority

/*
Contract storage model.

# Summary
Key-value storage format:
  - 'c' -> interop.Hash160
    staking coordinator
  - 'a'<interop.Hash160> -> bool
    authorized identities
*/
