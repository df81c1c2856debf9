// Package wallettest provides a scriptable wallet provider for tests.
package wallettest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"neuraswap/internal/model"
	"neuraswap/internal/wallet"
)

// Provider is an in-memory wallet. Unknown chains fail SwitchChain with code 4902
// and AddChain switches to the added chain.
type Provider struct {
	mu sync.Mutex

	Chain       *big.Int
	Known       map[string]bool
	Accounts    []common.Address
	AccountsErr error
	ChainIDErr  error
	SwitchErr   error
	AddErr      error

	// Block, when set, makes RequestAccounts wait for it to close.
	Block chan struct{}

	Switches []*big.Int
	Added    []model.NetworkSpec
	Requests int

	events chan wallet.Event
}

func NewProvider(chainID int64, accounts ...common.Address) *Provider {
	id := big.NewInt(chainID)
	return &Provider{
		Chain:    id,
		Known:    map[string]bool{id.String(): true},
		Accounts: accounts,
		events:   make(chan wallet.Event, 16),
	}
}

func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	p.Requests++
	block := p.Block
	p.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AccountsErr != nil {
		return nil, p.AccountsErr
	}
	return append([]common.Address(nil), p.Accounts...), nil
}

func (p *Provider) ChainID(context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ChainIDErr != nil {
		return nil, p.ChainIDErr
	}
	return new(big.Int).Set(p.Chain), nil
}

func (p *Provider) SwitchChain(_ context.Context, chainID *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Switches = append(p.Switches, new(big.Int).Set(chainID))
	if p.SwitchErr != nil {
		return p.SwitchErr
	}
	if !p.Known[chainID.String()] {
		return &wallet.ProviderError{Code: wallet.CodeUnrecognizedChain, Message: "Unrecognized chain ID " + chainID.String()}
	}
	p.setChain(chainID)
	return nil
}

func (p *Provider) AddChain(_ context.Context, spec model.NetworkSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Added = append(p.Added, spec)
	if p.AddErr != nil {
		return p.AddErr
	}
	p.Known[spec.ChainID.String()] = true
	p.setChain(spec.ChainID)
	return nil
}

func (p *Provider) setChain(id *big.Int) {
	if p.Chain.Cmp(id) == 0 {
		return
	}
	p.Chain = new(big.Int).Set(id)
	p.Emit(wallet.Event{Kind: wallet.ChainChanged, ChainID: new(big.Int).Set(id)})
}

// Emit queues a notification without blocking.
func (p *Provider) Emit(ev wallet.Event) {
	select {
	case p.events <- ev:
	default:
	}
}

func (p *Provider) CallContract(context.Context, ethereum.CallMsg) ([]byte, error) {
	return nil, nil
}

func (p *Provider) SendTransaction(context.Context, wallet.TxRequest) (*types.Transaction, error) {
	return types.NewTx(&types.LegacyTx{}), nil
}

func (p *Provider) WaitMined(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash()}, nil
}

func (p *Provider) Events() <-chan wallet.Event {
	return p.events
}
