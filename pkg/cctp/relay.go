package cctp

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"split-pay/pkg/types"
)

// NarrationStep describes one leg of the relay progress narration. The relay
// service gives no completion callbacks, so progress between the burn and the
// relay call is reported on fixed timers. Cosmetic only; the state machine
// does not depend on it.
type NarrationStep struct {
	Step        types.ProcessingStep
	FromPercent int
	ToPercent   int
	Duration    time.Duration
}

func defaultNarration() []NarrationStep {
	return []NarrationStep{
		{Step: types.StepPolling, FromPercent: 0, ToPercent: 33, Duration: 1500 * time.Millisecond},
		{Step: types.StepReceiving, FromPercent: 33, ToPercent: 66, Duration: 2500 * time.Millisecond},
		{Step: types.StepTransferring, FromPercent: 66, ToPercent: 100, Duration: 1000 * time.Millisecond},
	}
}

// runRelay hands the confirmed burn off to the relayer service. The payload
// is built from the request alone; nothing is shared between attempts.
func (o *Orchestrator) runRelay(ctx context.Context, gen uint64, req *types.TransferRequest, burnTxHash string) {
	if o.relayer == nil {
		o.fail(gen, types.PhaseProcessing, types.RelayFailed, fmt.Errorf("no relayer configured"))
		return
	}
	if !o.setPhase(gen, types.PhaseProcessing, 0) {
		return
	}

	for _, step := range o.narration {
		if !o.setStep(gen, step.Step, step.FromPercent) {
			return
		}
		if !o.animateProgress(ctx, gen, step) {
			return
		}
	}

	payload := types.RelayPayload{
		TxHash:  burnTxHash,
		GroupID: req.GroupID,
		ItemIDs: append([]int64(nil), req.ItemIDs...),
		Amount:  new(big.Int).Set(req.Amount),
	}
	if err := o.relayer.Relay(ctx, payload); err != nil {
		o.fail(gen, types.PhaseProcessing, types.RelayFailed, err)
		return
	}

	o.logger.Info().Str("tx_hash", burnTxHash).Int64("group_id", req.GroupID).Msg("relay accepted")
	o.setPhase(gen, types.PhaseComplete, 100)
}

// animateProgress interpolates progress over the step duration. Progress
// never decreases within the step.
func (o *Orchestrator) animateProgress(ctx context.Context, gen uint64, step NarrationStep) bool {
	const ticks = 10
	tickDur := step.Duration / ticks
	for i := 1; i <= ticks; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(tickDur):
		}
		percent := step.FromPercent + (step.ToPercent-step.FromPercent)*i/ticks
		if !o.setProgress(gen, percent) {
			return false
		}
	}
	return true
}

func (o *Orchestrator) setStep(gen uint64, step types.ProcessingStep, progress int) bool {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return false
	}
	o.state.Step = step
	o.state.ProgressPercent = progress
	ev := o.eventLocked("")
	o.mu.Unlock()
	o.emit(ev)
	return true
}

func (o *Orchestrator) setProgress(gen uint64, percent int) bool {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return false
	}
	if percent > o.state.ProgressPercent {
		o.state.ProgressPercent = percent
	}
	ev := o.eventLocked("")
	o.mu.Unlock()
	o.emit(ev)
	return true
}
