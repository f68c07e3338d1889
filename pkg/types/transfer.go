package types

import (
	"fmt"
	"math/big"
)

// Phase is the current step of a settlement attempt
type Phase string

const (
	PhaseIdle       Phase = "idle"       // No transfer in flight
	PhaseApproving  Phase = "approving"  // Token spend approval submitted
	PhaseBurning    Phase = "burning"    // depositForBurn submitted
	PhaseWaiting    Phase = "waiting"    // Polling for the attestation
	PhaseMinting    Phase = "minting"    // receiveMessage submitted on destination
	PhaseProcessing Phase = "processing" // Relayer handling the receive step
	PhaseComplete   Phase = "complete"   // Terminal success
)

// ProcessingStep names the relay sub-steps reported while a relayer
// completes the transfer
type ProcessingStep string

const (
	StepNone         ProcessingStep = ""
	StepPolling      ProcessingStep = "polling"      // Relayer polling attestation
	StepReceiving    ProcessingStep = "receiving"    // Relayer calling receiveMessage
	StepTransferring ProcessingStep = "transferring" // Funds moving to the recipient
)

// SettlementMethod selects how the destination-chain receive step happens
type SettlementMethod string

const (
	SettleDirect SettlementMethod = "direct" // Caller submits receiveMessage itself
	SettleRelay  SettlementMethod = "relay"  // Off-chain relayer submits receiveMessage
)

// FailureCode classifies settlement failures
type FailureCode string

const (
	ApprovalSubmissionFailed FailureCode = "approval_submission_failed"
	BurnSubmissionFailed     FailureCode = "burn_submission_failed"
	AttestationPollFailed    FailureCode = "attestation_poll_failed"
	MintSubmissionFailed     FailureCode = "mint_submission_failed"
	RelayFailed              FailureCode = "relay_failed"
	AlreadyInProgress        FailureCode = "already_in_progress"
	NoAttestationAvailable   FailureCode = "no_attestation_available"
)

// TransferError tags a failure with the phase it happened in
type TransferError struct {
	Code  FailureCode
	Phase Phase
	Err   error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (phase: %s): %v", e.Code, e.Phase, e.Err)
	}
	return fmt.Sprintf("%s (phase: %s)", e.Code, e.Phase)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// TransferRequest describes one settlement intent. It is built once per
// user-initiated settlement and never mutated afterwards.
type TransferRequest struct {
	SourceChain          string
	DestinationChain     string
	SourceDomain         uint32
	DestinationDomain    uint32
	TokenContract        string // USDC on the source chain
	BridgeContract       string // TokenMessenger on the source chain
	MessageTransmitter   string // MessageTransmitter on the destination chain
	Amount               *big.Int
	MaxFee               *big.Int
	DestinationAddress   string
	MinFinalityThreshold uint32 // 1000 or less selects a fast transfer
	Method               SettlementMethod

	// Relay-only fields, used to build the relayer payload
	GroupID int64
	ItemIDs []int64
}

// Validate checks the request has everything a settlement needs
func (r *TransferRequest) Validate() error {
	if r.Amount == nil || r.Amount.Sign() <= 0 {
		return fmt.Errorf("amount must be greater than 0")
	}
	if r.MaxFee == nil {
		return fmt.Errorf("max fee is required")
	}
	if r.MaxFee.Cmp(r.Amount) >= 0 {
		return fmt.Errorf("max fee must be less than amount")
	}
	if r.TokenContract == "" {
		return fmt.Errorf("token contract is required")
	}
	if r.BridgeContract == "" {
		return fmt.Errorf("bridge contract is required")
	}
	if r.DestinationAddress == "" {
		return fmt.Errorf("destination address is required")
	}
	if r.Method == SettleDirect && r.MessageTransmitter == "" {
		return fmt.Errorf("message transmitter is required for direct settlement")
	}
	if r.Method != SettleDirect && r.Method != SettleRelay {
		return fmt.Errorf("settlement method must be 'direct' or 'relay'")
	}
	return nil
}

// Attestation is the bridging network's signed statement that a burn is
// final. It corresponds to exactly one burn transaction and is consumed once.
type Attestation struct {
	Message   []byte
	Signature []byte
}

// TransferState is the mutable record of one settlement attempt. It is owned
// by the orchestrator and discarded on reset.
type TransferState struct {
	Phase           Phase
	Step            ProcessingStep
	ApproveTxHash   string
	BurnTxHash      string
	MintTxHash      string
	Attestation     *Attestation
	Err             *TransferError
	ProgressPercent int
}

// PhaseEvent is emitted on every observable state change
type PhaseEvent struct {
	Phase    Phase
	Step     ProcessingStep
	TxHash   string
	Progress int
	Err      *TransferError
}

// RelayPayload is the request body handed to the relayer service. It is
// built per request; nothing is shared across settlement attempts.
type RelayPayload struct {
	TxHash  string   `json:"txHash"`
	GroupID int64    `json:"groupId"`
	ItemIDs []int64  `json:"itemIds"`
	Amount  *big.Int `json:"amount"`
}
