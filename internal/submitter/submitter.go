package submitter

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tiny-oracle/tinyd/internal/alarm"
	"github.com/tiny-oracle/tinyd/internal/bus"
	"github.com/tiny-oracle/tinyd/internal/config"
	"github.com/tiny-oracle/tinyd/internal/sui"
	"github.com/tiny-oracle/tinyd/pkg/logging"
)

// Submitter consumes price envelopes and turns each into one feed
// transaction. A vector older than the tick interval is discarded
// instead of submitted, so a stalled chain never replays history.
type Submitter struct {
	cfg    *config.Config
	bus    *bus.Bus
	wallet *sui.Wallet

	intervalMs int64
	rpcIndex   int
	lastCheck  time.Time

	log       *logging.Logger
	submitted atomic.Uint64
}

// New wires a submitter to the bus and wallet. interval is the
// effective tick period; it bounds how old an envelope may be. When
// multisig submission is configured the committee in the file must
// reproduce the configured sender address.
func New(cfg *config.Config, b *bus.Bus, wallet *sui.Wallet, interval time.Duration) (*Submitter, error) {
	if cfg.UseMulti {
		derived, err := sui.MultiSigAddress(cfg.PublicKeys, cfg.Weights, cfg.Threshold)
		if err != nil {
			return nil, fmt.Errorf("invalid multisig committee: %w", err)
		}
		if !strings.EqualFold(derived, cfg.MultiAddress) {
			return nil, fmt.Errorf("multi_address %s does not match committee address %s", cfg.MultiAddress, derived)
		}
	}

	return &Submitter{
		cfg:        cfg,
		bus:        b,
		wallet:     wallet,
		intervalMs: interval.Milliseconds(),
		log:        logging.GetDefault().Component("submitter"),
	}, nil
}

// Submitted reports how many vectors reached the chain.
func (s *Submitter) Submitted() uint64 {
	return s.submitted.Load()
}

// Run drains the envelope stream until the context ends or the bus
// closes.
func (s *Submitter) Run(ctx context.Context) {
	s.log.Info("Submitter started",
		"rpc", s.wallet.Endpoint(),
		"multi", s.cfg.UseMulti)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Submitter stopped")
			return
		case e, ok := <-s.bus.Envelopes():
			if !ok {
				s.log.Info("Submitter stopped")
				return
			}
			s.process(ctx, e)
		}
	}
}

func (s *Submitter) process(ctx context.Context, e bus.Envelope) {
	now := time.Now()
	if age := now.UnixMilli() - int64(e.ProducedAtMs); age > s.intervalMs {
		s.log.Warn("Dropping stale price vector", "age_ms", age, "window_ms", s.intervalMs)
		return
	}

	s.checkBalance(ctx, now)

	args, err := PackParams(s.cfg.OracleCap, s.cfg.PriceOracle, e.Indices, e.Prices)
	if err != nil {
		s.log.Error("Failed to pack price vector", "err", err)
		return
	}

	if err := s.submit(ctx, e, args); err != nil {
		s.log.Error("Failed to submit price vector", "err", err, "rpc", s.wallet.Endpoint())
		s.rotate()
		if err := s.submit(ctx, e, args); err != nil {
			s.log.Error("Retry failed, dropping price vector", "err", err, "rpc", s.wallet.Endpoint())
			s.rotate()
			return
		}
	}
	s.submitted.Add(1)
}

func (s *Submitter) submit(ctx context.Context, e bus.Envelope, args []interface{}) error {
	var digest string
	var err error
	if s.cfg.UseMulti {
		digest, err = s.wallet.MultiCall(ctx, s.cfg.PackageID, OracleModule, UpdateFunction,
			s.cfg.Gas, s.cfg.GasBudget, args, s.cfg.PublicKeys, s.cfg.Weights, s.cfg.Threshold)
	} else {
		digest, err = s.wallet.Call(ctx, s.cfg.PackageID, OracleModule, UpdateFunction,
			s.cfg.GasBudget, args)
	}
	if err != nil {
		return err
	}

	s.log.Info("Price vector submitted", "digest", digest, "coins", len(e.Indices))
	return nil
}

// rotate advances to the next configured fullnode.
func (s *Submitter) rotate() {
	if len(s.cfg.RPCs) < 2 {
		return
	}
	s.rpcIndex = (s.rpcIndex + 1) % len(s.cfg.RPCs)
	s.wallet.SetEndpoint(s.cfg.RPCs[s.rpcIndex])
}

// checkBalance samples the gas balance at the configured cadence and
// feeds the result to the alarm stream. A zero reading is treated as a
// query glitch and skipped.
func (s *Submitter) checkBalance(ctx context.Context, now time.Time) {
	if now.Sub(s.lastCheck) < time.Duration(s.cfg.CheckBalanceInterval)*time.Millisecond {
		return
	}
	s.lastCheck = now

	var balance uint64
	var err error
	if s.cfg.UseMulti {
		balance, err = s.wallet.MultiBalance(ctx, s.cfg.MultiAddress, s.cfg.Gas)
	} else {
		balance, err = s.wallet.Balance(ctx)
	}
	if err != nil {
		s.log.Error("Failed to read gas balance", "err", err)
		return
	}
	if balance == 0 {
		s.log.Warn("Gas balance read zero, skipping sample")
		return
	}

	var a alarm.Alarm
	if s.cfg.EnableBalanceAlarm && balance < s.cfg.Balance {
		s.log.Warn("Gas balance below threshold", "balance", balance, "threshold", s.cfg.Balance)
		a = alarm.NewBalanceAlarm(balance, s.cfg.Balance)
	} else {
		a = alarm.NewBalanceSample(balance)
	}
	if !s.bus.PublishAlarm(a) {
		s.log.Warn("Alarm stream full, balance sample dropped")
	}
}
