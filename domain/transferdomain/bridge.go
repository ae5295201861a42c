// Package transferdomain validates and executes balance transfers between
// the DVM and EVM domains.
package transferdomain

import (
	"github.com/holiman/uint256"
	"github.com/xvmnet/xvmd/domain/addressformat"
	"github.com/xvmnet/xvmd/domain/attributes"
	"github.com/xvmnet/xvmd/domain/chainparams"
	"github.com/xvmnet/xvmd/domain/ledger"
	"github.com/xvmnet/xvmd/domain/model"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// Bridge validates and executes transfer-domain messages.
type Bridge struct {
	params *chainparams.Params
}

// New returns a Bridge for the given network.
func New(params *chainparams.Params) *Bridge {
	return &Bridge{params: params}
}

// DirectionOf returns the governance direction of msg.
func DirectionOf(msg *model.TransferDomainMessage) (attributes.Direction, bool) {
	switch src, dst := msg.Direction(); {
	case src == model.DomainDVM && dst == model.DomainEVM:
		return attributes.DirectionDVMToEVM, true
	case src == model.DomainEVM && dst == model.DomainDVM:
		return attributes.DirectionEVMToDVM, true
	}
	return "", false
}

// NewTransaction wraps msg as a transaction in the nonce space of its EVM
// endpoint. Transfers consume no gas.
func NewTransaction(msg *model.TransferDomainMessage, nonce uint64) *model.Transaction {
	return &model.Transaction{
		Kind:     model.TxKindTransferDomain,
		From:     msg.EVMSide().Canonical().EVM(),
		Nonce:    nonce,
		GasPrice: new(uint256.Int),
		Value:    new(uint256.Int),
		Transfer: msg,
	}
}

// Validate checks msg for inclusion in the block at height, against the
// governance snapshot and the account state of view.
func (b *Bridge) Validate(snapshot *attributes.Snapshot, height uint64, view ledger.View,
	msg *model.TransferDomainMessage) error {

	if !b.params.IsUpgradeActive(height) {
		return ruleerrors.Errorf(ruleerrors.ErrPreActivation,
			"transfer domain called before the network upgrade height %d", b.params.NextNetworkUpgradeHeight)
	}
	if !snapshot.Bool(attributes.KeyFeatureEVM) {
		return ruleerrors.Errorf(ruleerrors.ErrFeatureDisabled, "cannot create tx, EVM is not enabled")
	}
	if !snapshot.Bool(attributes.KeyFeatureTransferDomain) {
		return ruleerrors.Errorf(ruleerrors.ErrFeatureDisabled, "cannot create tx, transfer domain is not enabled")
	}

	direction, ok := DirectionOf(msg)
	if !ok {
		src, dst := msg.Direction()
		return ruleerrors.Errorf(ruleerrors.ErrInvalidTransferDomain,
			"invalid transfer from domain %s to domain %s", src, dst)
	}
	if !msg.Src.Amount.Equal(msg.Dst.Amount) {
		return ruleerrors.Errorf(ruleerrors.ErrAmountMismatch,
			"source amount %s must be equal to destination amount %s", msg.Src.Amount, msg.Dst.Amount)
	}
	if model.CloneInt(msg.Src.Amount.Amount).IsZero() {
		return ruleerrors.Errorf(ruleerrors.ErrInvalidTransferDomain, "transfer amount must be positive")
	}
	if err := checkDataSize(snapshot, msg.Src); err != nil {
		return err
	}
	if err := checkDataSize(snapshot, msg.Dst); err != nil {
		return err
	}

	policy := PolicyFor(snapshot, direction)
	if !policy.Enabled {
		return ruleerrors.Errorf(ruleerrors.ErrDirectionDisabled, "%s is not currently enabled", directionName(direction))
	}
	if msg.Src.Amount.Token == model.NativeTokenID {
		if !policy.NativeEnabled {
			return ruleerrors.Errorf(ruleerrors.ErrTokenDisabled,
				"transfer of the native token is not enabled for %s", directionName(direction))
		}
	} else if !policy.DATEnabled {
		return ruleerrors.Errorf(ruleerrors.ErrTokenDisabled,
			"transfer of token %d is not enabled for %s", msg.Src.Amount.Token, directionName(direction))
	}

	srcFormat := addressformat.Classify(b.params, msg.Src.Address)
	if srcFormat == addressformat.FormatUnknown || !policy.allowsSrc(srcFormat) {
		return ruleerrors.Errorf(ruleerrors.ErrInvalidSrcFormat,
			"source address %s of format %q is not allowed for %s", msg.Src.Address.Value, srcFormat, direction)
	}
	dstFormat := addressformat.Classify(b.params, msg.Dst.Address)
	if dstFormat == addressformat.FormatUnknown || !policy.allowsDest(dstFormat) {
		return ruleerrors.Errorf(ruleerrors.ErrInvalidDstFormat,
			"destination address %s of format %q is not allowed for %s", msg.Dst.Address.Value, dstFormat, direction)
	}

	if err := b.checkAuth(direction, policy, msg); err != nil {
		return err
	}

	debit, err := denominate(msg.Src)
	if err != nil {
		return err
	}
	balance := view.Balance(msg.Src.Address, msg.Src.Amount.Token)
	if balance.Lt(debit) {
		return ruleerrors.Errorf(ruleerrors.ErrInsufficientFunds,
			"%s holds %s of token %d, transfer needs %s", msg.Src.Address, balance, msg.Src.Amount.Token, debit)
	}
	return nil
}

// Execute validates msg and moves its amount from the source to the
// destination in workingState. Either both sides change or neither does.
func (b *Bridge) Execute(snapshot *attributes.Snapshot, height uint64, workingState *ledger.WorkingState,
	msg *model.TransferDomainMessage) error {

	err := b.Validate(snapshot, height, workingState, msg)
	if err != nil {
		return err
	}
	debit, err := denominate(msg.Src)
	if err != nil {
		return err
	}
	credit, err := denominate(msg.Dst)
	if err != nil {
		return err
	}

	transfer := workingState.Fork()
	err = transfer.SubBalance(msg.Src.Address, msg.Src.Amount.Token, debit)
	if err != nil {
		return err
	}
	err = transfer.AddBalance(msg.Dst.Address, msg.Dst.Amount.Token, credit)
	if err != nil {
		return err
	}
	err = transfer.Merge()
	if err != nil {
		return err
	}
	log.Debugf("Transferred %s from %s to %s", msg.Src.Amount, msg.Src.Address, msg.Dst.Address)
	return nil
}

// checkAuth verifies the ownership proof of msg. The DVM auth address must
// belong to PubKey. For DVM to EVM it must be the source itself; for EVM to
// DVM the erc55 source must belong to the same key and the pairing of the
// auth address format with erc55 must be allowed.
func (b *Bridge) checkAuth(direction attributes.Direction, policy *Policy, msg *model.TransferDomainMessage) error {
	auth := msg.AuthAddress()
	authFormat := addressformat.Classify(b.params, auth)
	if auth.Domain != model.DomainDVM || authFormat == addressformat.FormatUnknown {
		return ruleerrors.Errorf(ruleerrors.ErrAuthFormatMismatch, "invalid auth address %s", auth)
	}
	if !addressformat.MatchesKey(b.params, auth, msg.PubKey) {
		return ruleerrors.Errorf(ruleerrors.ErrAuthFormatMismatch,
			"tx must have at least one input from account owner %s", auth.Value)
	}
	pairing := addressformat.AuthPairing(authFormat)

	switch direction {
	case attributes.DirectionDVMToEVM:
		if auth != msg.Src.Address.Canonical() {
			return ruleerrors.Errorf(ruleerrors.ErrAuthFormatMismatch,
				"auth address %s does not own the source %s", auth.Value, msg.Src.Address.Value)
		}
		if len(policy.AuthFormats) > 0 && !policy.allowsAuth(pairing) {
			return ruleerrors.Errorf(ruleerrors.ErrAuthFormatMismatch, "auth format %s is not allowed for %s", pairing, direction)
		}
	case attributes.DirectionEVMToDVM:
		if !policy.allowsAuth(pairing) {
			return ruleerrors.Errorf(ruleerrors.ErrAuthFormatMismatch,
				"tx must have at least one input from account owner, auth format %s is not allowed", pairing)
		}
		erc55, err := addressformat.ERC55Address(msg.PubKey)
		if err != nil || erc55.EVM() != msg.Src.Address.EVM() {
			return ruleerrors.Errorf(ruleerrors.ErrAuthFormatMismatch,
				"source %s is not the erc55 address of the auth key", msg.Src.Address.Value)
		}
	}
	return nil
}

func checkDataSize(snapshot *attributes.Snapshot, endpoint model.TransferDomainEndpoint) error {
	key := attributes.KeyDVMOpReturnMaxSize
	if endpoint.Address.Domain == model.DomainEVM {
		key = attributes.KeyEVMOpReturnMaxSize
	}
	limit := snapshot.Uint64(key, 0)
	if uint64(len(endpoint.Data)) > limit {
		return ruleerrors.Errorf(ruleerrors.ErrOpReturnTooLarge,
			"%s data of %d bytes is above the %d bytes limit", endpoint.Address.Domain, len(endpoint.Data), limit)
	}
	return nil
}

// denominate converts the amount of endpoint into the denomination of its
// domain: base units on DVM, wei on EVM.
func denominate(endpoint model.TransferDomainEndpoint) (*uint256.Int, error) {
	if endpoint.Address.Domain != model.DomainEVM {
		return model.CloneInt(endpoint.Amount.Amount), nil
	}
	wei, err := model.UnitsToWei(endpoint.Amount.Amount)
	if err != nil {
		return nil, ruleerrors.Errorf(ruleerrors.ErrAmountMismatch, "%s", err)
	}
	return wei, nil
}

func directionName(direction attributes.Direction) string {
	if direction == attributes.DirectionDVMToEVM {
		return "DVM to EVM"
	}
	return "EVM to DVM"
}
