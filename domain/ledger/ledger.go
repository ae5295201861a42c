// Package ledger holds the balances and nonces of both domains at the chain
// tip. Blocks change it only through a WorkingState, and every connected
// block leaves a BlockDelta behind so that it can be rolled back.
package ledger

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/model"
)

// View is read-only access to account state.
type View interface {
	Nonce(address model.Address) uint64
	Balance(address model.Address, token model.TokenID) *uint256.Int
}

// Account is a copy of the state of one account.
type Account struct {
	Address  model.Address
	Nonce    uint64
	Balances map[model.TokenID]*uint256.Int
}

// accountState values are never modified once they are reachable from the
// Ledger. WorkingState copies them before writing.
type accountState struct {
	nonce    uint64
	balances map[model.TokenID]*uint256.Int
}

func (a *accountState) clone() *accountState {
	clone := &accountState{balances: make(map[model.TokenID]*uint256.Int)}
	if a == nil {
		return clone
	}
	clone.nonce = a.nonce
	for token, balance := range a.balances {
		clone.balances[token] = new(uint256.Int).Set(balance)
	}
	return clone
}

func (a *accountState) balance(token model.TokenID) *uint256.Int {
	if a == nil {
		return new(uint256.Int)
	}
	return model.CloneInt(a.balances[token])
}

type stateReader interface {
	View
	account(address model.Address) *accountState
}

// BlockDelta holds the account states a block replaced. A nil previous
// state means the account did not exist before the block.
type BlockDelta struct {
	Height   uint64
	Previous map[model.Address]*accountState
}

// Ledger is the account state at the chain tip.
type Ledger struct {
	mtx      sync.RWMutex
	height   uint64
	accounts map[model.Address]*accountState
	deltas   []*BlockDelta
}

// New returns a ledger at height 0 holding the given genesis balances.
func New(allocs []chainparams.GenesisAlloc) (*Ledger, error) {
	l := &Ledger{accounts: make(map[model.Address]*accountState)}
	for _, alloc := range allocs {
		address := alloc.Address.Canonical()
		account, ok := l.accounts[address]
		if !ok {
			account = &accountState{balances: make(map[model.TokenID]*uint256.Int)}
			l.accounts[address] = account
		}
		balance := account.balance(alloc.Amount.Token)
		if _, overflow := balance.AddOverflow(balance, model.CloneInt(alloc.Amount.Amount)); overflow {
			return nil, errors.Errorf("genesis balance of %s overflows", address)
		}
		account.balances[alloc.Amount.Token] = balance
	}
	return l, nil
}

// Height returns the height of the last connected block.
func (l *Ledger) Height() uint64 {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return l.height
}

// Nonce returns the nonce of address at the tip.
func (l *Ledger) Nonce(address model.Address) uint64 {
	account := l.account(address)
	if account == nil {
		return 0
	}
	return account.nonce
}

// Balance returns the balance of address at the tip.
func (l *Ledger) Balance(address model.Address, token model.TokenID) *uint256.Int {
	return l.account(address).balance(token)
}

// Account returns a copy of the state of address at the tip. Accounts that
// were never touched have a zero nonce and no balances.
func (l *Ledger) Account(address model.Address) *Account {
	address = address.Canonical()
	state := l.account(address).clone()
	return &Account{Address: address, Nonce: state.nonce, Balances: state.balances}
}

func (l *Ledger) account(address model.Address) *accountState {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return l.accounts[address.Canonical()]
}

// NewWorkingState returns an empty set of changes on top of the tip.
func (l *Ledger) NewWorkingState() *WorkingState {
	return newWorkingState(l)
}

// Connect applies the changes of workingState as the block at height, which
// must directly follow the tip.
func (l *Ledger) Connect(height uint64, workingState *WorkingState) (*BlockDelta, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if workingState.parent != stateReader(l) {
		return nil, errors.New("cannot connect a working state that was not created on this ledger")
	}
	if height != l.height+1 {
		return nil, errors.Errorf("cannot connect height %d on top of height %d", height, l.height)
	}

	delta := &BlockDelta{Height: height, Previous: make(map[model.Address]*accountState, len(workingState.dirty))}
	for address, account := range workingState.dirty {
		delta.Previous[address] = l.accounts[address]
		l.accounts[address] = account
	}
	l.deltas = append(l.deltas, delta)
	l.height = height
	// The working state must not be written once its accounts are shared.
	workingState.dirty = nil
	log.Tracef("Connected ledger height %d touching %d accounts", height, len(delta.Previous))
	return delta, nil
}

// Rollback reverts every block above toHeight.
func (l *Ledger) Rollback(toHeight uint64) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if toHeight > l.height {
		return errors.Errorf("cannot roll back the ledger from height %d to %d", l.height, toHeight)
	}
	for len(l.deltas) > 0 && l.deltas[len(l.deltas)-1].Height > toHeight {
		delta := l.deltas[len(l.deltas)-1]
		for address, previous := range delta.Previous {
			if previous == nil {
				delete(l.accounts, address)
			} else {
				l.accounts[address] = previous
			}
		}
		l.deltas = l.deltas[:len(l.deltas)-1]
	}
	if len(l.deltas) > 0 {
		l.height = l.deltas[len(l.deltas)-1].Height
	} else {
		l.height = 0
	}
	if l.height != toHeight {
		return errors.Errorf("the ledger has no delta for height %d, it is at height %d", toHeight, l.height)
	}
	log.Debugf("Rolled back the ledger to height %d", toHeight)
	return nil
}
