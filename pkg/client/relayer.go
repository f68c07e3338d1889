package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"split-pay/pkg/types"
)

// RelayerClient submits confirmed burns to the relayer service, which takes
// over attestation polling and the destination-chain receive step.
type RelayerClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewRelayerClient creates a client for the relayer service
func NewRelayerClient(baseURL string, logger *zerolog.Logger) *RelayerClient {
	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}
	return &RelayerClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(),
		logger:     lg,
	}
}

// Relay posts the burn transaction hash and settlement details to the
// relayer. A 2xx response acknowledges the handoff.
func (c *RelayerClient) Relay(ctx context.Context, payload types.RelayPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal relay payload: %w", err)
	}

	endpoint := c.baseURL + "/api/relay-tx"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	c.logger.Debug().Str("tx_hash", payload.TxHash).Msg("relay request accepted")
	return nil
}
