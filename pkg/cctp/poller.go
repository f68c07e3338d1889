package cctp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"split-pay/pkg/types"
)

const (
	// DefaultPollInterval matches the attestation service's guidance for
	// fast transfers.
	DefaultPollInterval = 5 * time.Second
)

// AttestationFetcher looks up the attestation for a burn transaction.
// ok is false while the bridging network has not attested the burn yet.
type AttestationFetcher interface {
	Attestation(ctx context.Context, sourceDomain uint32, txHash string) (attestation *types.Attestation, ok bool, err error)
}

// Poller repeatedly queries the attestation service for a burn transaction
// until the attestation is available, the context is cancelled, or the
// configured maximum wait elapses.
type Poller struct {
	fetcher  AttestationFetcher
	interval time.Duration
	maxWait  time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a poller. interval <= 0 selects the default 5s;
// maxWait <= 0 polls until the context is cancelled.
func NewPoller(fetcher AttestationFetcher, interval, maxWait time.Duration, logger *zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		maxWait:  maxWait,
		logger:   lg,
	}
}

// Poll blocks until an attestation for (sourceDomain, burnTxHash) is
// available. Transient fetch errors and pending statuses are logged and
// retried on the next tick. At most one attestation is returned per call and
// the poll terminates the moment it is found.
func (p *Poller) Poll(ctx context.Context, sourceDomain uint32, burnTxHash string) (*types.Attestation, error) {
	var deadline <-chan time.Time
	if p.maxWait > 0 {
		timer := time.NewTimer(p.maxWait)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Check immediately, then on every tick
	for {
		attestation, ok, err := p.fetcher.Attestation(ctx, sourceDomain, burnTxHash)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Debug().Err(err).
				Uint32("source_domain", sourceDomain).
				Str("tx_hash", burnTxHash).
				Msg("waiting for attestation")
		case ok:
			return attestation, nil
		default:
			p.logger.Debug().
				Uint32("source_domain", sourceDomain).
				Str("tx_hash", burnTxHash).
				Msg("attestation not ready yet")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("no attestation for %s after %s", burnTxHash, p.maxWait)
		case <-ticker.C:
		}
	}
}
