/*
Package transferproxy implements Transfer Proxy contract which pulls NEP-17
assets into the Vault contract on deposit.

The Vault never calls asset contracts to take funds from owners directly, it
asks the configured proxy instead. The proxy can be replaced by an authorized
party while the vault is in Normal state, e.g. to route deposits through a
contract that applies additional checks.

# Contract notifications

Transfer Proxy contract does not produce notifications to process.
*/
package transferproxy

/*
Contract storage model.

At the moment, no data is stored in the contract.
*/
