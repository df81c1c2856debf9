package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"neuraswap/internal/chain"
	"neuraswap/internal/model"
)

// Backend is the RPC surface the keyed wallet needs; *chain.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Dialer opens a backend for an RPC endpoint.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// ChainDialer dials *chain.Client backends with the given options.
func ChainDialer(opts chain.Options) Dialer {
	return func(ctx context.Context, rpcURL string) (Backend, error) {
		return chain.NewClient(ctx, rpcURL, opts)
	}
}

const gasHeadroomPct = 20

// KeyedWallet signs with a local private key and behaves like an injected wallet:
// it only knows the networks it was started on or was asked to add, and it
// notifies listeners when the active chain changes.
type KeyedWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	dial    Dialer
	logger  *zap.Logger

	mu       sync.Mutex
	networks map[string]model.NetworkSpec
	backend  Backend
	chainID  *big.Int

	events chan Event
}

// NewKeyed opens a wallet on rpcURL using a hex-encoded private key.
func NewKeyed(ctx context.Context, hexKey string, rpcURL string, dial Dialer, logger *zap.Logger) (*KeyedWallet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dial == nil {
		return nil, fmt.Errorf("dialer is nil")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	backend, err := dial(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	w := &KeyedWallet{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		dial:     dial,
		logger:   logger,
		networks: make(map[string]model.NetworkSpec),
		backend:  backend,
		chainID:  id,
		events:   make(chan Event, 16),
	}
	w.networks[id.String()] = model.NetworkSpec{ChainID: id, Name: "chain " + id.String(), RPCURLs: []string{rpcURL}}
	return w, nil
}

// Address returns the signing account.
func (w *KeyedWallet) Address() common.Address {
	return w.address
}

// Close releases the active backend.
func (w *KeyedWallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.backend != nil {
		w.backend.Close()
		w.backend = nil
	}
}

func (w *KeyedWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []common.Address{w.address}, nil
}

func (w *KeyedWallet) ChainID(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return new(big.Int).Set(w.chainID), nil
}

func (w *KeyedWallet) SwitchChain(ctx context.Context, chainID *big.Int) error {
	if chainID == nil {
		return fmt.Errorf("chain id is nil")
	}
	w.mu.Lock()
	if w.chainID.Cmp(chainID) == 0 {
		w.mu.Unlock()
		return nil
	}
	spec, ok := w.networks[chainID.String()]
	w.mu.Unlock()
	if !ok {
		return errUnrecognizedChain(model.NetworkSpec{ChainID: chainID}.ChainIDHex())
	}
	return w.attach(ctx, spec)
}

// AddChain registers the network and, like browser wallets after an approved add, switches to it.
func (w *KeyedWallet) AddChain(ctx context.Context, spec model.NetworkSpec) error {
	if spec.ChainID == nil || len(spec.RPCURLs) == 0 {
		return &ProviderError{Code: -32602, Message: "invalid chain parameters"}
	}
	w.mu.Lock()
	w.networks[spec.ChainID.String()] = spec
	current := w.chainID.Cmp(spec.ChainID) == 0
	w.mu.Unlock()

	w.logger.Info("network added", zap.String("chain_id", spec.ChainIDHex()), zap.String("name", spec.Name))
	if current {
		return nil
	}
	return w.attach(ctx, spec)
}

func (w *KeyedWallet) attach(ctx context.Context, spec model.NetworkSpec) error {
	var lastErr error
	for _, url := range spec.RPCURLs {
		backend, err := w.dial(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		id, err := backend.ChainID(ctx)
		if err != nil {
			backend.Close()
			lastErr = err
			continue
		}
		if id.Cmp(spec.ChainID) != 0 {
			backend.Close()
			lastErr = fmt.Errorf("rpc %s reports chain %s, want %s", url, id, spec.ChainID)
			continue
		}

		w.mu.Lock()
		old := w.backend
		w.backend = backend
		w.chainID = new(big.Int).Set(id)
		w.mu.Unlock()
		if old != nil {
			old.Close()
		}

		w.logger.Info("switched chain", zap.String("chain_id", spec.ChainIDHex()), zap.String("rpc", url))
		w.emit(Event{Kind: ChainChanged, ChainID: new(big.Int).Set(id)})
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no rpc endpoints")
	}
	return fmt.Errorf("attach %s: %w", spec.ChainIDHex(), lastErr)
}

func (w *KeyedWallet) current() (Backend, *big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.backend == nil {
		return nil, nil, fmt.Errorf("wallet is closed")
	}
	return w.backend, new(big.Int).Set(w.chainID), nil
}

func (w *KeyedWallet) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	backend, _, err := w.current()
	if err != nil {
		return nil, err
	}
	return backend.CallContract(ctx, msg, nil)
}

func (w *KeyedWallet) SendTransaction(ctx context.Context, req TxRequest) (*types.Transaction, error) {
	if req.From != (common.Address{}) && req.From != w.address {
		return nil, &ProviderError{Code: CodeUnauthorized, Message: "The requested account has not been authorized by the user."}
	}
	backend, chainID, err := w.current()
	if err != nil {
		return nil, err
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To

	gas := req.GasLimit
	if gas == 0 {
		estimate, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: w.address, To: &to, Data: req.Data, Value: value})
		if err != nil {
			return nil, err
		}
		gas = estimate + estimate*gasHeadroomPct/100
	}

	nonce, err := backend.PendingNonceAt(ctx, w.address)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}

	w.logger.Debug("transaction sent", zap.String("tx_hash", signed.Hash().Hex()), zap.Uint64("nonce", nonce), zap.Uint64("gas", gas))
	return signed, nil
}

// WaitMined blocks until tx is mined. A failed receipt is replayed at its block to recover the revert reason.
func (w *KeyedWallet) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	backend, _, err := w.current()
	if err != nil {
		return nil, err
	}
	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return receipt, nil
	}

	msg := ethereum.CallMsg{From: w.address, To: tx.To(), Gas: tx.Gas(), Value: tx.Value(), Data: tx.Data()}
	_, callErr := backend.CallContract(ctx, msg, receipt.BlockNumber)
	message := "transaction reverted"
	if callErr != nil {
		message = chain.ErrorMessage(callErr)
	}
	return receipt, model.NewError(model.KindTransactionReverted, message, callErr)
}

func (w *KeyedWallet) Events() <-chan Event {
	return w.events
}

func (w *KeyedWallet) emit(event Event) {
	select {
	case w.events <- event:
	default:
		w.logger.Warn("wallet event dropped", zap.String("kind", event.Kind.String()))
	}
}
