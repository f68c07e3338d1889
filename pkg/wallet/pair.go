package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"split-pay/pkg/cctp"
)

// Pair routes settlement calls to the right network: approvals, burns, and
// allowance reads go to the source wallet, the receive step goes to the
// destination wallet. Confirmation waits follow whichever wallet broadcast
// the transaction. It implements the orchestrator's Wallet interface for
// cross-chain direct settlement.
type Pair struct {
	source *EVMWallet
	dest   *EVMWallet

	mu     sync.Mutex
	origin map[string]*EVMWallet
}

// NewPair wires a source and destination wallet together. dest may be nil
// when the receive step is delegated to a relayer.
func NewPair(source, dest *EVMWallet) *Pair {
	return &Pair{
		source: source,
		dest:   dest,
		origin: make(map[string]*EVMWallet),
	}
}

// Address returns the source-chain signing address
func (p *Pair) Address() string {
	return p.source.Address()
}

// Approve submits the token approval on the source chain
func (p *Pair) Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error) {
	txHash, err := p.source.Approve(ctx, token, spender, amount)
	if err != nil {
		return "", err
	}
	p.record(txHash, p.source)
	return txHash, nil
}

// DepositForBurn burns on the source chain
func (p *Pair) DepositForBurn(ctx context.Context, messenger string, params cctp.BurnParams) (string, error) {
	txHash, err := p.source.DepositForBurn(ctx, messenger, params)
	if err != nil {
		return "", err
	}
	p.record(txHash, p.source)
	return txHash, nil
}

// ReceiveMessage submits the attested message on the destination chain
func (p *Pair) ReceiveMessage(ctx context.Context, transmitter string, message, attestation []byte) (string, error) {
	if p.dest == nil {
		return "", fmt.Errorf("no destination wallet configured")
	}
	txHash, err := p.dest.ReceiveMessage(ctx, transmitter, message, attestation)
	if err != nil {
		return "", err
	}
	p.record(txHash, p.dest)
	return txHash, nil
}

// WaitForConfirmation waits on the network that broadcast the transaction
func (p *Pair) WaitForConfirmation(ctx context.Context, txHash string) error {
	p.mu.Lock()
	w, ok := p.origin[txHash]
	p.mu.Unlock()
	if !ok {
		w = p.source
	}
	return w.WaitForConfirmation(ctx, txHash)
}

// Allowance reads the source-chain spend approval
func (p *Pair) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	return p.source.Allowance(ctx, token, owner, spender)
}

func (p *Pair) record(txHash string, w *EVMWallet) {
	p.mu.Lock()
	p.origin[txHash] = w
	p.mu.Unlock()
}

// Close closes both client connections
func (p *Pair) Close() {
	p.source.Close()
	if p.dest != nil && p.dest != p.source {
		p.dest.Close()
	}
}
