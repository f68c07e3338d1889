package types

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func validRequest() *TransferRequest {
	return &TransferRequest{
		SourceChain:        "sepolia",
		DestinationChain:   "fuji",
		TokenContract:      "0xToken",
		BridgeContract:     "0xMessenger",
		MessageTransmitter: "0xTransmitter",
		Amount:             big.NewInt(1_000_000),
		MaxFee:             big.NewInt(500),
		DestinationAddress: "0xRecipient",
		Method:             SettleDirect,
	}
}

func TestTransferRequestValidate(t *testing.T) {
	require.NoError(t, validRequest().Validate())
}

func TestTransferRequestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TransferRequest)
	}{
		{"nil amount", func(r *TransferRequest) { r.Amount = nil }},
		{"zero amount", func(r *TransferRequest) { r.Amount = big.NewInt(0) }},
		{"negative amount", func(r *TransferRequest) { r.Amount = big.NewInt(-5) }},
		{"nil max fee", func(r *TransferRequest) { r.MaxFee = nil }},
		{"max fee equals amount", func(r *TransferRequest) { r.MaxFee = big.NewInt(1_000_000) }},
		{"max fee above amount", func(r *TransferRequest) { r.MaxFee = big.NewInt(2_000_000) }},
		{"missing token", func(r *TransferRequest) { r.TokenContract = "" }},
		{"missing bridge", func(r *TransferRequest) { r.BridgeContract = "" }},
		{"missing recipient", func(r *TransferRequest) { r.DestinationAddress = "" }},
		{"direct without transmitter", func(r *TransferRequest) { r.MessageTransmitter = "" }},
		{"unknown method", func(r *TransferRequest) { r.Method = "teleport" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			require.Error(t, req.Validate())
		})
	}
}

func TestRelayRequestNeedsNoTransmitter(t *testing.T) {
	req := validRequest()
	req.Method = SettleRelay
	req.MessageTransmitter = ""
	require.NoError(t, req.Validate())
}

func TestTransferErrorWrapping(t *testing.T) {
	cause := errors.New("rpc timeout")
	terr := &TransferError{Code: BurnSubmissionFailed, Phase: PhaseBurning, Err: cause}

	require.ErrorIs(t, terr, cause)
	require.Contains(t, terr.Error(), string(BurnSubmissionFailed))
	require.Contains(t, terr.Error(), string(PhaseBurning))

	bare := &TransferError{Code: AlreadyInProgress, Phase: PhaseWaiting}
	require.Contains(t, bare.Error(), string(AlreadyInProgress))
	require.Nil(t, bare.Unwrap())
}
