package trail

import (
	"context"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/block"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// Client is a subset of the RPC client methods used by Scanner.
type Client interface {
	GetBlockCount() (uint32, error)
	GetBlockByIndex(index uint32) (*block.Block, error)
	GetApplicationLog(hash util.Uint256, trig *trigger.Type) (*result.ApplicationLog, error)
}

// Scanner feeds the ledger with the application logs of the chain blocks.
type Scanner struct {
	cli    Client
	ledger *Ledger
	log    *zap.Logger
}

// NewScanner returns Scanner replaying blocks into l.
func NewScanner(cli Client, l *Ledger, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{cli: cli, ledger: l, log: log}
}

// Height returns the index of the latest block of the chain.
func (s *Scanner) Height() (uint32, error) {
	count, err := s.cli.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("block count: %w", err)
	}
	if count == 0 {
		return 0, fmt.Errorf("empty chain")
	}
	return count - 1, nil
}

// Scan replays transactions of the blocks from `from` to `to` inclusive and
// returns the index of the first block not processed, so scanning can be
// resumed from it. Every block is applied to the ledger as a whole or not at
// all. Scanning stops when ctx is done.
func (s *Scanner) Scan(ctx context.Context, from, to uint32) (uint32, error) {
	next := from
	for i := from; i <= to; i++ {
		select {
		case <-ctx.Done():
			return next, ctx.Err()
		default:
		}

		b, err := s.cli.GetBlockByIndex(i)
		if err != nil {
			return next, fmt.Errorf("block #%d: %w", i, err)
		}

		logs := make([]*result.ApplicationLog, 0, len(b.Transactions))
		for _, tx := range b.Transactions {
			h := tx.Hash()
			log, err := s.cli.GetApplicationLog(h, nil)
			if err != nil {
				return next, fmt.Errorf("application log of %s: %w", h.StringLE(), err)
			}
			logs = append(logs, log)
		}

		n, err := s.ledger.Apply(logs...)
		if err != nil {
			return next, fmt.Errorf("block #%d: %w", i, err)
		}
		if n != 0 {
			s.log.Debug("vault notifications replayed",
				zap.Uint32("block", i),
				zap.Int("count", n))
		}

		next = i + 1
		if i == to {
			break
		}
	}

	return next, nil
}
