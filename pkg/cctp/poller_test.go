package cctp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"split-pay/pkg/types"
)

func TestPollReturnsWhenAttested(t *testing.T) {
	fetcher := &fakeFetcher{
		pending: 2,
		att:     &types.Attestation{Message: []byte{0xaa}, Signature: []byte{0xbb}},
	}
	poller := NewPoller(fetcher, time.Millisecond, 0, nil)

	attestation, err := poller.Poll(context.Background(), 0, testBurnHash)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa}, attestation.Message)
	require.Equal(t, []byte{0xbb}, attestation.Signature)

	// Two pending responses, then the hit
	require.Equal(t, 3, fetcher.callCount())
}

func TestPollRetriesTransientErrors(t *testing.T) {
	fetcher := &fakeFetcher{
		errs: 2,
		att:  &types.Attestation{Message: []byte{0x01}, Signature: []byte{0x02}},
	}
	poller := NewPoller(fetcher, time.Millisecond, 0, nil)

	attestation, err := poller.Poll(context.Background(), 0, testBurnHash)
	require.NoError(t, err)
	require.NotNil(t, attestation)
	require.Equal(t, 3, fetcher.callCount())
}

func TestPollStopsOnContextCancel(t *testing.T) {
	fetcher := &fakeFetcher{pending: 1 << 30}
	poller := NewPoller(fetcher, time.Millisecond, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := poller.Poll(ctx, 0, testBurnHash)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPollHonorsMaxWait(t *testing.T) {
	fetcher := &fakeFetcher{pending: 1 << 30}
	poller := NewPoller(fetcher, time.Millisecond, 20*time.Millisecond, nil)

	start := time.Now()
	_, err := poller.Poll(context.Background(), 0, testBurnHash)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no attestation")
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestPollDefaultsInterval(t *testing.T) {
	poller := NewPoller(&fakeFetcher{}, 0, 0, nil)
	require.Equal(t, DefaultPollInterval, poller.interval)
}
