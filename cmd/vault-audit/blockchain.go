package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/stake-vault/rpc/authority"
	"github.com/nspcc-dev/stake-vault/rpc/vault"
)

// wrapper over Neo RPC client providing read-only access to the audited
// Vault and its collaborators.
type remoteBlockchain struct {
	rpc *rpcclient.Client
	inv *invoker.Invoker

	vault *vault.ContractReader
}

// newRemoteBlockchain dials Neo RPC server with the given timeout applied to
// the connection and every request.
func newRemoteBlockchain(ctx context.Context, endpoint string, timeout time.Duration, vaultHash util.Uint160) (*remoteBlockchain, error) {
	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{
		DialTimeout:    timeout,
		RequestTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	err = c.Init()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("RPC client init: %w", err)
	}

	inv := invoker.New(c, nil)

	return &remoteBlockchain{
		rpc:   c,
		inv:   inv,
		vault: vault.NewReader(inv, vaultHash),
	}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}

// authority returns reader of the Authorization contract the Vault relies on.
func (x *remoteBlockchain) authority() (*authority.ContractReader, error) {
	h, err := x.vault.Authority()
	if err != nil {
		return nil, fmt.Errorf("get authority contract of the vault: %w", err)
	}
	return authority.NewReader(x.inv, h), nil
}

// custody returns the managed asset and the amount of it held by the Vault.
func (x *remoteBlockchain) custody(vaultHash util.Uint160) (util.Uint160, *big.Int, error) {
	asset, err := x.vault.Asset()
	if err != nil {
		return util.Uint160{}, nil, fmt.Errorf("get managed asset: %w", err)
	}

	b, err := nep17.NewReader(x.inv, asset).BalanceOf(vaultHash)
	if err != nil {
		return asset, nil, fmt.Errorf("get asset balance of the vault: %w", err)
	}

	return asset, b, nil
}
