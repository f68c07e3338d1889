package cmd

import (
	"fmt"
	"sync"

	"github.com/briandowns/spinner"

	"split-pay/pkg/types"
)

// settlementEvents builds the orchestrator event handler for interactive
// settlements: it narrates each phase on the spinner and delivers the
// terminal event (completion or failure) on the returned channel.
func settlementEvents(s *spinner.Spinner, quiet bool) (func(types.PhaseEvent), <-chan types.PhaseEvent) {
	done := make(chan types.PhaseEvent, 1)
	var once sync.Once

	handler := func(ev types.PhaseEvent) {
		if !quiet {
			s.Suffix = " " + phaseMessage(ev)
		}
		if ev.Err != nil || ev.Phase == types.PhaseComplete {
			once.Do(func() { done <- ev })
		}
	}
	return handler, done
}

func phaseMessage(ev types.PhaseEvent) string {
	switch ev.Phase {
	case types.PhaseApproving:
		return "Approving USDC spend..."
	case types.PhaseBurning:
		return "Burning USDC on source chain..."
	case types.PhaseWaiting:
		return "Waiting for Circle attestation..."
	case types.PhaseMinting:
		return "Minting USDC on destination chain..."
	case types.PhaseProcessing:
		return processingMessage(ev)
	case types.PhaseComplete:
		return "Settlement complete"
	default:
		return "Working..."
	}
}

func processingMessage(ev types.PhaseEvent) string {
	switch ev.Step {
	case types.StepPolling:
		return fmt.Sprintf("Relayer polling attestation... %d%%", ev.Progress)
	case types.StepReceiving:
		return fmt.Sprintf("Relayer receiving on destination... %d%%", ev.Progress)
	case types.StepTransferring:
		return fmt.Sprintf("Transferring to recipient... %d%%", ev.Progress)
	default:
		return "Relayer processing..."
	}
}
