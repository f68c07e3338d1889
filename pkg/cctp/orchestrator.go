package cctp

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"split-pay/pkg/types"
)

const (
	// DefaultApproveMultiplier is the safety margin applied to the approve
	// amount to cover fee drift between approval and burn.
	DefaultApproveMultiplier = 2
)

// Wallet signs and submits transactions and reads on-chain state. A returned
// hash means the transaction was broadcast, not that it confirmed.
type Wallet interface {
	// Address returns the chain-native address of the signing account
	Address() string

	// Approve submits a token spend approval and returns the tx hash
	Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error)

	// DepositForBurn burns tokens on the source chain via the bridge contract
	DepositForBurn(ctx context.Context, messenger string, params BurnParams) (string, error)

	// ReceiveMessage submits the attested message on the destination chain
	ReceiveMessage(ctx context.Context, transmitter string, message, attestation []byte) (string, error)

	// WaitForConfirmation blocks until the transaction confirms. A non-nil
	// error means the transaction reverted or the wait was cancelled.
	WaitForConfirmation(ctx context.Context, txHash string) error

	// Allowance reads the current spend approval for owner -> spender
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
}

// BurnParams carries the depositForBurn arguments in the encoding the bridge
// contract expects: bytes32 values are 0x-prefixed 64-digit hex strings.
type BurnParams struct {
	Amount               *big.Int
	DestinationDomain    uint32
	MintRecipient        string
	BurnToken            string
	DestinationCaller    string
	MaxFee               *big.Int
	MinFinalityThreshold uint32
}

// Relayer delegates the destination-chain receive step to an off-chain
// service that polls for the attestation and submits receiveMessage itself.
type Relayer interface {
	Relay(ctx context.Context, payload types.RelayPayload) error
}

// Options tunes orchestrator behavior. Zero values select the reference
// behavior: 2x approve margin, 5s attestation polling with no upper bound,
// unbounded confirmation waits.
type Options struct {
	ApproveMultiplier int64
	ConfirmTimeout    time.Duration
	PollInterval      time.Duration
	PollMaxWait       time.Duration
	RelayNarration    []NarrationStep
	Logger            *zerolog.Logger
	OnEvent           func(types.PhaseEvent)
}

// Orchestrator drives one settlement attempt at a time through
// approve -> burn -> attest -> mint (or relay handoff). All failures resolve
// to a state update; nothing is thrown past Submit.
type Orchestrator struct {
	wallet         Wallet
	poller         *Poller
	relayer        Relayer
	multiplier     int64
	confirmTimeout time.Duration
	narration      []NarrationStep
	logger         zerolog.Logger
	onEvent        func(types.PhaseEvent)

	mu     sync.RWMutex
	gen    uint64
	req    *types.TransferRequest
	state  types.TransferState
	cancel context.CancelFunc
}

// NewOrchestrator wires the orchestrator to its collaborators. The relayer
// may be nil when only direct settlement is used.
func NewOrchestrator(wallet Wallet, fetcher AttestationFetcher, relayer Relayer, opts Options) *Orchestrator {
	multiplier := opts.ApproveMultiplier
	if multiplier <= 0 {
		multiplier = DefaultApproveMultiplier
	}
	narration := opts.RelayNarration
	if narration == nil {
		narration = defaultNarration()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Orchestrator{
		wallet:         wallet,
		poller:         NewPoller(fetcher, opts.PollInterval, opts.PollMaxWait, opts.Logger),
		relayer:        relayer,
		multiplier:     multiplier,
		confirmTimeout: opts.ConfirmTimeout,
		narration:      narration,
		logger:         logger,
		onEvent:        opts.OnEvent,
		state:          types.TransferState{Phase: types.PhaseIdle},
	}
}

// State returns a snapshot of the current transfer state
func (o *Orchestrator) State() types.TransferState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// CanBurn reports whether the current allowance covers the request amount.
// The allowance is re-read on every call; it is never cached across attempts.
func (o *Orchestrator) CanBurn(ctx context.Context, req *types.TransferRequest) (bool, error) {
	allowance, err := o.wallet.Allowance(ctx, req.TokenContract, o.wallet.Address(), req.BridgeContract)
	if err != nil {
		return false, fmt.Errorf("failed to read allowance: %w", err)
	}
	return allowance.Cmp(req.Amount) >= 0, nil
}

// Submit starts a settlement attempt. It returns an error only when the
// request is invalid or another attempt is in flight; submission and
// confirmation failures surface on the transfer state instead.
func (o *Orchestrator) Submit(ctx context.Context, req *types.TransferRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid transfer request: %w", err)
	}

	o.mu.Lock()
	// A completed attempt does not block a new one; only in-flight phases do.
	if o.state.Phase != types.PhaseIdle && o.state.Phase != types.PhaseComplete {
		phase := o.state.Phase
		o.mu.Unlock()
		return &types.TransferError{Code: types.AlreadyInProgress, Phase: phase}
	}
	o.gen++
	gen := o.gen
	attemptCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.req = req
	o.state = types.TransferState{Phase: types.PhaseApproving, ProgressPercent: 10}
	ev := o.eventLocked("")
	o.mu.Unlock()
	o.emit(ev)

	o.logger.Info().
		Str("source_chain", req.SourceChain).
		Str("destination_chain", req.DestinationChain).
		Str("amount", req.Amount.String()).
		Str("method", string(req.Method)).
		Msg("settlement submitted")

	go o.run(attemptCtx, gen, req)
	return nil
}

// Reset abandons the in-flight attempt and returns to idle. It stops the
// attestation poll and discards pending confirmation waits; it cannot cancel
// a transaction that was already broadcast.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.gen++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.req = nil
	o.state = types.TransferState{Phase: types.PhaseIdle}
	ev := o.eventLocked("")
	o.mu.Unlock()
	o.emit(ev)
}

// run drives a single attempt to completion. Every state mutation is guarded
// by the attempt generation so work left over from a reset attempt is
// dropped silently.
func (o *Orchestrator) run(ctx context.Context, gen uint64, req *types.TransferRequest) {
	// Approve amount * multiplier for the bridge contract
	approveAmount := new(big.Int).Mul(req.Amount, big.NewInt(o.multiplier))
	approveHash, err := o.wallet.Approve(ctx, req.TokenContract, req.BridgeContract, approveAmount)
	if err != nil {
		o.fail(gen, types.PhaseApproving, types.ApprovalSubmissionFailed, err)
		return
	}
	if !o.recordTx(gen, types.PhaseApproving, approveHash) {
		return
	}
	if err := o.waitConfirmed(ctx, approveHash); err != nil {
		o.fail(gen, types.PhaseApproving, types.ApprovalSubmissionFailed, err)
		return
	}
	if !o.confirmed(gen, approveHash) {
		return
	}
	o.logger.Info().Str("tx_hash", approveHash).Msg("approval confirmed")

	// Burn immediately on approval confirmation
	if !o.setPhase(gen, types.PhaseBurning, 35) {
		return
	}
	recipient, err := AddressToBytes32(req.DestinationAddress)
	if err != nil {
		o.fail(gen, types.PhaseBurning, types.BurnSubmissionFailed, err)
		return
	}
	burnHash, err := o.wallet.DepositForBurn(ctx, req.BridgeContract, BurnParams{
		Amount:               req.Amount,
		DestinationDomain:    req.DestinationDomain,
		MintRecipient:        recipient,
		BurnToken:            req.TokenContract,
		DestinationCaller:    ZeroBytes32,
		MaxFee:               req.MaxFee,
		MinFinalityThreshold: req.MinFinalityThreshold,
	})
	if err != nil {
		o.fail(gen, types.PhaseBurning, types.BurnSubmissionFailed, err)
		return
	}
	if !o.recordTx(gen, types.PhaseBurning, burnHash) {
		return
	}
	if err := o.waitConfirmed(ctx, burnHash); err != nil {
		o.fail(gen, types.PhaseBurning, types.BurnSubmissionFailed, err)
		return
	}
	if !o.confirmed(gen, burnHash) {
		return
	}
	o.logger.Info().Str("tx_hash", burnHash).Msg("burn confirmed")

	// Poll for the attestation keyed by (burnTxHash, sourceDomain)
	if !o.setPhase(gen, types.PhaseWaiting, 60) {
		return
	}
	attestation, err := o.poller.Poll(ctx, req.SourceDomain, burnHash)
	if err != nil {
		o.fail(gen, types.PhaseWaiting, types.AttestationPollFailed, err)
		return
	}
	if !o.setAttestation(gen, attestation) {
		return
	}
	o.logger.Info().Str("tx_hash", burnHash).Msg("attestation received")

	switch req.Method {
	case types.SettleRelay:
		o.runRelay(ctx, gen, req, burnHash)
	default:
		o.runMint(ctx, gen, req)
	}
}

// runMint submits receiveMessage on the destination chain
func (o *Orchestrator) runMint(ctx context.Context, gen uint64, req *types.TransferRequest) {
	o.mu.RLock()
	attestation := o.state.Attestation
	o.mu.RUnlock()
	if attestation == nil {
		o.fail(gen, types.PhaseMinting, types.NoAttestationAvailable, nil)
		return
	}

	if !o.setPhase(gen, types.PhaseMinting, 85) {
		return
	}
	mintHash, err := o.wallet.ReceiveMessage(ctx, req.MessageTransmitter, attestation.Message, attestation.Signature)
	if err != nil {
		o.fail(gen, types.PhaseMinting, types.MintSubmissionFailed, err)
		return
	}
	if !o.recordTx(gen, types.PhaseMinting, mintHash) {
		return
	}
	if err := o.waitConfirmed(ctx, mintHash); err != nil {
		o.fail(gen, types.PhaseMinting, types.MintSubmissionFailed, err)
		return
	}
	if !o.confirmed(gen, mintHash) {
		return
	}
	o.logger.Info().Str("tx_hash", mintHash).Msg("mint confirmed")
	o.setPhase(gen, types.PhaseComplete, 100)
}

func (o *Orchestrator) waitConfirmed(ctx context.Context, txHash string) error {
	if o.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.confirmTimeout)
		defer cancel()
	}
	return o.wallet.WaitForConfirmation(ctx, txHash)
}

// confirmed applies the stale-event guard: a confirmation only counts when
// the attempt is still current and the hash matches the one recorded at
// submission.
func (o *Orchestrator) confirmed(gen uint64, txHash string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if gen != o.gen {
		return false
	}
	switch o.state.Phase {
	case types.PhaseApproving:
		return o.state.ApproveTxHash == txHash
	case types.PhaseBurning:
		return o.state.BurnTxHash == txHash
	case types.PhaseMinting:
		return o.state.MintTxHash == txHash
	default:
		return false
	}
}

func (o *Orchestrator) setPhase(gen uint64, phase types.Phase, progress int) bool {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return false
	}
	o.state.Phase = phase
	o.state.ProgressPercent = progress
	if phase == types.PhaseComplete {
		o.state.Step = types.StepNone
		o.releaseAttemptLocked()
	}
	ev := o.eventLocked("")
	o.mu.Unlock()
	o.emit(ev)
	return true
}

func (o *Orchestrator) recordTx(gen uint64, phase types.Phase, txHash string) bool {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return false
	}
	switch phase {
	case types.PhaseApproving:
		o.state.ApproveTxHash = txHash
	case types.PhaseBurning:
		o.state.BurnTxHash = txHash
	case types.PhaseMinting:
		o.state.MintTxHash = txHash
	}
	ev := o.eventLocked(txHash)
	o.mu.Unlock()
	o.emit(ev)
	return true
}

func (o *Orchestrator) setAttestation(gen uint64, attestation *types.Attestation) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		return false
	}
	o.state.Attestation = attestation
	return true
}

// fail records a phase-tagged error and mechanically returns the machine to
// idle. Partial progress such as the burn hash stays on the state so a caller
// can inspect it.
func (o *Orchestrator) fail(gen uint64, phase types.Phase, code types.FailureCode, err error) bool {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return false
	}
	terr := &types.TransferError{Code: code, Phase: phase, Err: err}
	o.state.Err = terr
	o.state.Phase = types.PhaseIdle
	o.state.Step = types.StepNone
	o.releaseAttemptLocked()
	ev := o.eventLocked("")
	o.mu.Unlock()

	o.logger.Error().Err(terr).Str("phase", string(phase)).Msg("settlement failed")
	o.emit(ev)
	return true
}

// releaseAttemptLocked cancels the attempt context once the attempt reaches a
// terminal outcome, so a finished attempt does not pin its context until the
// next Reset. Must be called with the lock held.
func (o *Orchestrator) releaseAttemptLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator) eventLocked(txHash string) types.PhaseEvent {
	return types.PhaseEvent{
		Phase:    o.state.Phase,
		Step:     o.state.Step,
		TxHash:   txHash,
		Progress: o.state.ProgressPercent,
		Err:      o.state.Err,
	}
}

func (o *Orchestrator) emit(ev types.PhaseEvent) {
	if o.onEvent != nil {
		o.onEvent(ev)
	}
}
