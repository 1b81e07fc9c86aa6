package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/stake-vault/rpc/authority"
	"github.com/nspcc-dev/stake-vault/trail"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	rpcFlag     = "rpc"
	vaultFlag   = "vault"
	fromFlag    = "from"
	toFlag      = "to"
	timeoutFlag = "timeout"
	debugFlag   = "debug"
)

func main() {
	app := cli.NewApp()
	app.Name = "vault-audit"
	app.Usage = "Replay Stake Vault notifications and compare them with the on-chain ledger"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  rpcFlag + ", r",
			Usage: "Network address of the Neo RPC server",
		},
		cli.StringFlag{
			Name:  vaultFlag,
			Usage: "Vault contract address or script hash (LE)",
		},
		cli.UintFlag{
			Name:  fromFlag,
			Usage: "Index of the first block to scan, usually the deployment block of the vault",
		},
		cli.UintFlag{
			Name:  toFlag,
			Usage: "Index of the last block to scan (latest by default)",
		},
		cli.DurationFlag{
			Name:  timeoutFlag,
			Value: 15 * time.Second,
			Usage: "Dial and request timeout of the RPC client",
		},
		cli.BoolFlag{
			Name:  debugFlag + ", d",
			Usage: "Enable debug logging",
		},
	}
	app.Action = audit

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func parseHash(s string) (util.Uint160, error) {
	if h, err := address.StringToUint160(s); err == nil {
		return h, nil
	}
	return util.Uint160DecodeStringLE(s)
}

func audit(c *cli.Context) error {
	endpoint := c.String(rpcFlag)
	if endpoint == "" {
		return cli.NewExitError("missing Neo RPC endpoint", 1)
	}

	vaultHash, err := parseHash(c.String(vaultFlag))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid vault contract: %w", err), 1)
	}

	log, err := newLogger(c.Bool(debugFlag))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("init logger: %w", err), 1)
	}
	defer func() { _ = log.Sync() }()

	log = log.With(zap.Stringer("run", uuid.New()), zap.Stringer("vault", vaultHash))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	b, err := newRemoteBlockchain(ctx, endpoint, c.Duration(timeoutFlag), vaultHash)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer b.close()

	var (
		ledger  = trail.NewLedger(vaultHash)
		scanner = trail.NewScanner(b.rpc, ledger, log)
		from    = uint32(c.Uint(fromFlag))
		to      = uint32(c.Uint(toFlag))
	)

	if !c.IsSet(toFlag) {
		to, err = scanner.Height()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	if from > to {
		return cli.NewExitError(fmt.Sprintf("invalid block range [%d; %d]", from, to), 1)
	}

	log.Info("scanning blocks", zap.Uint32("from", from), zap.Uint32("to", to))

	next, err := scanner.Scan(ctx, from, to)
	if err != nil {
		log.Error("scan interrupted", zap.Uint32("next block", next), zap.Error(err))
		return cli.NewExitError(err, 1)
	}

	log.Info("notifications replayed",
		zap.Int("count", ledger.Events()),
		zap.Int("owners", len(ledger.Owners())))

	if c.IsSet(toFlag) {
		log.Warn("ledger is verified against the latest state, not the state of the last scanned block")
	}

	rep, err := ledger.Verify(b.vault)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("verify ledger: %w", err), 1)
	}

	logCollaborators(log, b, vaultHash)

	for _, m := range rep.Mismatches {
		log.Error("balance mismatch",
			zap.String("owner", address.Uint160ToString(m.Owner)),
			zap.Stringer("replayed", m.Replayed),
			zap.Stringer("on-chain", m.OnChain))
	}

	log.Info("audit finished",
		zap.Bool("ok", rep.OK()),
		zap.Stringer("digest", rep.Digest),
		zap.Stringer("replayed total", rep.ReplayedTotal),
		zap.Stringer("on-chain total", rep.OnChainTotal),
		zap.Bool("replayed failure mode", rep.ReplayedFailure),
		zap.Bool("on-chain failure mode", rep.OnChainFailure))

	if !rep.OK() {
		return cli.NewExitError("replayed ledger differs from the on-chain state", 2)
	}

	return nil
}

// logCollaborators reports the contracts the vault relies on and checks that
// the vault holds enough asset to cover all balances.
func logCollaborators(log *zap.Logger, b *remoteBlockchain, vaultHash util.Uint160) {
	asset, custody, err := b.custody(vaultHash)
	if err != nil {
		log.Warn("failed to check asset custody", zap.Error(err))
	} else {
		total, err := b.vault.TotalBalance()
		if err == nil && total.Cmp(custody) > 0 {
			log.Error("vault holds less asset than it owes",
				zap.Stringer("asset", asset),
				zap.Stringer("held", custody),
				zap.Stringer("owed", total))
		}
	}

	proxy, err := b.vault.AssetProxy()
	if err == nil {
		log.Info("asset proxy", zap.Stringer("address", proxy))
	}

	auth, err := b.authority()
	if err != nil {
		log.Warn("failed to read authority", zap.Error(err))
		return
	}

	coordinator, err := auth.StakingCoordinator()
	switch {
	case errors.Is(err, authority.ErrNoCoordinator):
		log.Warn("staking coordinator is not set")
	case err != nil:
		log.Warn("failed to read staking coordinator", zap.Error(err))
	default:
		log.Info("staking coordinator", zap.String("address", address.Uint160ToString(coordinator)))
	}
}
