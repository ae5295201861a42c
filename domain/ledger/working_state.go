package ledger

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// WorkingState is a copy-on-write set of account changes on top of a Ledger
// or of another WorkingState.
type WorkingState struct {
	parent stateReader
	dirty  map[model.Address]*accountState
}

func newWorkingState(parent stateReader) *WorkingState {
	return &WorkingState{parent: parent, dirty: make(map[model.Address]*accountState)}
}

// Fork returns a nested working state whose changes reach ws only through
// Merge. Dropping the fork discards its changes.
func (ws *WorkingState) Fork() *WorkingState {
	return newWorkingState(ws)
}

// Merge moves the changes of a fork into the working state it was forked
// from.
func (ws *WorkingState) Merge() error {
	parent, ok := ws.parent.(*WorkingState)
	if !ok {
		return errors.New("only a forked working state can be merged")
	}
	for address, account := range ws.dirty {
		parent.dirty[address] = account
	}
	ws.dirty = make(map[model.Address]*accountState)
	return nil
}

func (ws *WorkingState) account(address model.Address) *accountState {
	if account, ok := ws.dirty[address]; ok {
		return account
	}
	return ws.parent.account(address)
}

func (ws *WorkingState) writableAccount(address model.Address) *accountState {
	if account, ok := ws.dirty[address]; ok {
		return account
	}
	account := ws.parent.account(address).clone()
	ws.dirty[address] = account
	return account
}

// Nonce returns the nonce of address including the pending changes.
func (ws *WorkingState) Nonce(address model.Address) uint64 {
	account := ws.account(address.Canonical())
	if account == nil {
		return 0
	}
	return account.nonce
}

// Balance returns the balance of address including the pending changes.
func (ws *WorkingState) Balance(address model.Address, token model.TokenID) *uint256.Int {
	return ws.account(address.Canonical()).balance(token)
}

// IncrementNonce bumps the nonce of address by one.
func (ws *WorkingState) IncrementNonce(address model.Address) {
	ws.writableAccount(address.Canonical()).nonce++
}

// AddBalance credits amount of token to address.
func (ws *WorkingState) AddBalance(address model.Address, token model.TokenID, amount *uint256.Int) error {
	address = address.Canonical()
	balance := ws.Balance(address, token)
	if _, overflow := balance.AddOverflow(balance, model.CloneInt(amount)); overflow {
		return errors.Errorf("balance of %s overflows when crediting %s", address, amount)
	}
	ws.writableAccount(address).balances[token] = balance
	return nil
}

// SubBalance debits amount of token from address. It fails with
// ErrInsufficientFunds and leaves the balance untouched when the balance
// does not cover amount.
func (ws *WorkingState) SubBalance(address model.Address, token model.TokenID, amount *uint256.Int) error {
	address = address.Canonical()
	balance := ws.Balance(address, token)
	amount = model.CloneInt(amount)
	if balance.Lt(amount) {
		return ruleerrors.Errorf(ruleerrors.ErrInsufficientFunds,
			"%s holds %s of token %d, needs %s", address, balance, token, amount)
	}
	ws.writableAccount(address).balances[token] = balance.Sub(balance, amount)
	return nil
}

// Touched returns the addresses changed in this working state.
func (ws *WorkingState) Touched() []model.Address {
	addresses := make([]model.Address, 0, len(ws.dirty))
	for address := range ws.dirty {
		addresses = append(addresses, address)
	}
	return addresses
}
