package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"split-pay/config"
	"split-pay/pkg/cctp"
)

// receiptPollInterval is how often a broadcast transaction is checked for a
// receipt while waiting for confirmation.
const receiptPollInterval = 2 * time.Second

// USDC functions used by the settlement flow
const usdcABI = `[{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// TokenMessengerV2 depositForBurn
const tokenMessengerABI = `[{"inputs":[{"name":"amount","type":"uint256"},{"name":"destinationDomain","type":"uint32"},{"name":"mintRecipient","type":"bytes32"},{"name":"burnToken","type":"address"},{"name":"destinationCaller","type":"bytes32"},{"name":"maxFee","type":"uint256"},{"name":"minFinalityThreshold","type":"uint32"}],"name":"depositForBurn","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// MessageTransmitterV2 receiveMessage
const messageTransmitterABI = `[{"inputs":[{"name":"message","type":"bytes"},{"name":"attestation","type":"bytes"}],"name":"receiveMessage","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// EVMWallet signs and submits settlement transactions on one EVM network.
// It implements the orchestrator's Wallet interface.
type EVMWallet struct {
	chainName   string
	chain       config.ChainConfig
	client      *ethclient.Client
	privateKey  *ecdsa.PrivateKey
	address     common.Address
	logger      zerolog.Logger
	usdc        abi.ABI
	messenger   abi.ABI
	transmitter abi.ABI
}

// NewEVMWallet connects to the network's RPC endpoint and prepares the
// signing account.
func NewEVMWallet(chainName string, chain config.ChainConfig, logger *zerolog.Logger) (*EVMWallet, error) {
	if chain.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for chain %s", chainName)
	}
	if chain.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured for chain %s", chainName)
	}

	client, err := ethclient.Dial(chain.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(chain.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to derive public key")
	}

	usdc, err := abi.JSON(strings.NewReader(usdcABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse USDC ABI: %w", err)
	}
	messenger, err := abi.JSON(strings.NewReader(tokenMessengerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse TokenMessenger ABI: %w", err)
	}
	transmitter, err := abi.JSON(strings.NewReader(messageTransmitterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MessageTransmitter ABI: %w", err)
	}

	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}

	return &EVMWallet{
		chainName:   chainName,
		chain:       chain,
		client:      client,
		privateKey:  privateKey,
		address:     crypto.PubkeyToAddress(*publicKey),
		logger:      lg,
		usdc:        usdc,
		messenger:   messenger,
		transmitter: transmitter,
	}, nil
}

// Address returns the signing account's address
func (w *EVMWallet) Address() string {
	return w.address.Hex()
}

// Approve submits a USDC spend approval for the given spender
func (w *EVMWallet) Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error) {
	if !common.IsHexAddress(token) {
		return "", fmt.Errorf("invalid token contract address: %s", token)
	}
	if !common.IsHexAddress(spender) {
		return "", fmt.Errorf("invalid spender address: %s", spender)
	}

	data, err := w.usdc.Pack("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack approve data: %w", err)
	}

	return w.sendTransaction(ctx, common.HexToAddress(token), data)
}

// DepositForBurn burns tokens via the TokenMessenger contract
func (w *EVMWallet) DepositForBurn(ctx context.Context, messenger string, params cctp.BurnParams) (string, error) {
	if !common.IsHexAddress(messenger) {
		return "", fmt.Errorf("invalid token messenger address: %s", messenger)
	}

	mintRecipient, err := bytes32FromHex(params.MintRecipient)
	if err != nil {
		return "", fmt.Errorf("invalid mint recipient: %w", err)
	}
	destinationCaller, err := bytes32FromHex(params.DestinationCaller)
	if err != nil {
		return "", fmt.Errorf("invalid destination caller: %w", err)
	}

	data, err := w.messenger.Pack("depositForBurn",
		params.Amount,
		params.DestinationDomain,
		mintRecipient,
		common.HexToAddress(params.BurnToken),
		destinationCaller,
		params.MaxFee,
		params.MinFinalityThreshold,
	)
	if err != nil {
		return "", fmt.Errorf("failed to pack depositForBurn data: %w", err)
	}

	return w.sendTransaction(ctx, common.HexToAddress(messenger), data)
}

// ReceiveMessage submits the attested message to the MessageTransmitter
func (w *EVMWallet) ReceiveMessage(ctx context.Context, transmitter string, message, attestation []byte) (string, error) {
	if !common.IsHexAddress(transmitter) {
		return "", fmt.Errorf("invalid message transmitter address: %s", transmitter)
	}

	data, err := w.transmitter.Pack("receiveMessage", message, attestation)
	if err != nil {
		return "", fmt.Errorf("failed to pack receiveMessage data: %w", err)
	}

	return w.sendTransaction(ctx, common.HexToAddress(transmitter), data)
}

// WaitForConfirmation blocks until the transaction has a receipt. A reverted
// transaction is reported as an error.
func (w *EVMWallet) WaitForConfirmation(ctx context.Context, txHash string) error {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", txHash)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != ethereum.NotFound {
			w.logger.Debug().Err(err).Str("tx_hash", txHash).Msg("receipt lookup failed, retrying")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Allowance reads the current owner -> spender spend approval
func (w *EVMWallet) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	data, err := w.usdc.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance data: %w", err)
	}

	result, err := w.call(ctx, common.HexToAddress(token), data)
	if err != nil {
		return nil, fmt.Errorf("failed to call allowance: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}

// BalanceOf reads the token balance of an account
func (w *EVMWallet) BalanceOf(ctx context.Context, token, account string) (*big.Int, error) {
	data, err := w.usdc.Pack("balanceOf", common.HexToAddress(account))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf data: %w", err)
	}

	result, err := w.call(ctx, common.HexToAddress(token), data)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}

func (w *EVMWallet) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{
		To:   &to,
		Data: data,
	}
	return w.client.CallContract(ctx, msg, nil)
}

// sendTransaction builds, signs, and broadcasts a contract call
func (w *EVMWallet) sendTransaction(ctx context.Context, to common.Address, data []byte) (string, error) {
	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := w.gasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit := uint64(200000)
	if w.chain.GasLimit != nil {
		gasLimit = *w.chain.GasLimit
	} else {
		msg := ethereum.CallMsg{
			From: w.address,
			To:   &to,
			Data: data,
		}
		estimatedGas, err := w.client.EstimateGas(ctx, msg)
		if err == nil {
			gasLimit = estimatedGas * 120 / 100 // Add 20% buffer
		}
	}

	tx := types.NewTransaction(
		nonce,
		to,
		big.NewInt(0),
		gasLimit,
		gasPrice,
		data,
	)

	chainID := big.NewInt(w.chain.ChainID)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	w.logger.Debug().
		Str("chain", w.chainName).
		Str("to", to.Hex()).
		Str("tx_hash", signedTx.Hash().Hex()).
		Msg("transaction broadcast")

	return signedTx.Hash().Hex(), nil
}

// gasPrice returns the gas price to use for transactions
func (w *EVMWallet) gasPrice(ctx context.Context) (*big.Int, error) {
	if w.chain.GasPrice != nil {
		return big.NewInt(*w.chain.GasPrice), nil
	}

	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	return gasPrice, nil
}

// AddressFromKey derives the account address for a hex-encoded private key
// without connecting to a network.
func AddressFromKey(privateKeyHex string) (string, error) {
	if privateKeyHex == "" {
		return "", fmt.Errorf("private key not configured")
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("failed to derive public key")
	}
	return crypto.PubkeyToAddress(*publicKey).Hex(), nil
}

// bytes32FromHex decodes a 0x-prefixed 64-digit hex string into [32]byte
func bytes32FromHex(value string) ([32]byte, error) {
	var out [32]byte
	hexPart := strings.TrimPrefix(value, "0x")
	decoded, err := hex.DecodeString(hexPart)
	if err != nil {
		return out, err
	}
	if len(decoded) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

// Close closes the client connection
func (w *EVMWallet) Close() {
	if w.client != nil {
		w.client.Close()
	}
}
