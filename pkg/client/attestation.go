package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"split-pay/pkg/types"
)

// DefaultAttestationBaseURL is Circle's sandbox attestation service
const DefaultAttestationBaseURL = "https://iris-api-sandbox.circle.com"

// messageStatusComplete marks an attested message in the v2 API
const messageStatusComplete = "complete"

// AttestationClient queries the attestation service for attested burn
// messages. It implements the orchestrator's AttestationFetcher interface.
type AttestationClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewAttestationClient creates a client for the attestation service
func NewAttestationClient(baseURL string, logger *zerolog.Logger) *AttestationClient {
	if baseURL == "" {
		baseURL = DefaultAttestationBaseURL
	}
	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}
	return &AttestationClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(),
		logger:     lg,
	}
}

// attestationMessage is a single message in the v2 response
type attestationMessage struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Attestation string `json:"attestation"`
}

type attestationResponse struct {
	Messages []attestationMessage `json:"messages"`
}

// Attestation looks up the attested message for a burn transaction.
// ok is false while the attestation is not available yet.
func (c *AttestationClient) Attestation(ctx context.Context, sourceDomain uint32, txHash string) (*types.Attestation, bool, error) {
	endpoint := fmt.Sprintf("%s/v2/messages/%d?transactionHash=%s", c.baseURL, sourceDomain, url.QueryEscape(txHash))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build attestation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("attestation request failed: %w", err)
	}
	defer resp.Body.Close()

	// The service returns 404 until it has seen the burn transaction
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, apiError(resp)
	}

	var decoded attestationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("failed to decode attestation response: %w", err)
	}

	if len(decoded.Messages) == 0 {
		return nil, false, nil
	}
	message := decoded.Messages[0]
	if message.Status != messageStatusComplete {
		c.logger.Debug().Str("status", message.Status).Str("tx_hash", txHash).Msg("attestation pending")
		return nil, false, nil
	}

	messageBytes, err := decodeHexBytes(message.Message)
	if err != nil {
		return nil, false, fmt.Errorf("invalid attestation message encoding: %w", err)
	}
	signatureBytes, err := decodeHexBytes(message.Attestation)
	if err != nil {
		return nil, false, fmt.Errorf("invalid attestation signature encoding: %w", err)
	}

	return &types.Attestation{Message: messageBytes, Signature: signatureBytes}, true, nil
}
