package cpi

import (
	"context"

	"github.com/wippyai/account-runtime/account"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/errors"
)

// Marshaling limits.
const (
	MaxCPIAccounts = 64
	MaxCPIDataLen  = 10 * 1024
	MaxSigners     = 16
)

// Invoke calls ix without derived-address signers.
func Invoke(ctx context.Context, env *Env, ix *Instruction, accounts []account.Account) error {
	return InvokeWithBounds(ctx, env, MaxCPIAccounts, ix, accounts, nil)
}

// InvokeSigned calls ix, signing for the derived addresses of signers.
func InvokeSigned(ctx context.Context, env *Env, ix *Instruction, accounts []account.Account, signers []Signer) error {
	return InvokeWithBounds(ctx, env, MaxCPIAccounts, ix, accounts, signers)
}

// InvokeWithBounds is InvokeSigned for instructions of at most limit
// accounts.
//
// Every meta of ix must name one of accounts. Writable entries require that
// no hold be outstanding on the record; read-only entries require that no
// exclusive hold be outstanding. A non-zero status from the host is returned
// as KindInvokeFailed carrying that status.
func InvokeWithBounds(ctx context.Context, env *Env, limit int, ix *Instruction, accounts []account.Account, signers []Signer) error {
	if len(ix.Accounts) > limit {
		return errors.New(errors.PhaseInvoke, errors.KindInvalidArgument).
			Value(len(ix.Accounts)).
			Detail("%d accounts exceed bound of %d", len(ix.Accounts), limit).
			Build()
	}

	infos := make([]AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		acct, ok := lookup(accounts, meta.Key)
		if !ok {
			return errors.MissingAccount(errors.PhaseInvoke, "account "+meta.Key.String()+" not provided")
		}
		if err := checkBorrow(acct, meta.Writable); err != nil {
			return err
		}
		infos[i] = InfoOf(acct)
	}
	return dispatch(ctx, env, ix, infos, signers)
}

// InvokeUnchecked calls ix passing accounts as given, without matching them
// to the metas and without borrow checks. The caller guarantees that no
// guard over any of the records is live.
func InvokeUnchecked(ctx context.Context, env *Env, ix *Instruction, accounts []account.Account, signers []Signer) error {
	infos := make([]AccountInfo, len(accounts))
	for i, acct := range accounts {
		infos[i] = InfoOf(acct)
	}
	return dispatch(ctx, env, ix, infos, signers)
}

func lookup(accounts []account.Account, key address.Address) (account.Account, bool) {
	for _, a := range accounts {
		if a.Key() == key {
			return a, true
		}
	}
	return account.Account{}, false
}

func checkBorrow(a account.Account, writable bool) error {
	if writable {
		if err := a.CheckBorrowMutBalance(); err != nil {
			return err
		}
		return a.CheckBorrowMutData()
	}
	if err := a.CheckBorrowBalance(); err != nil {
		return err
	}
	return a.CheckBorrowData()
}

func dispatch(ctx context.Context, env *Env, ix *Instruction, infos []AccountInfo, signers []Signer) error {
	if err := env.check(); err != nil {
		return err
	}
	if len(ix.Data) > MaxCPIDataLen {
		return errors.New(errors.PhaseInvoke, errors.KindInvalidInstruction).
			Value(len(ix.Data)).
			Detail("%d bytes of instruction data exceed %d", len(ix.Data), MaxCPIDataLen).
			Build()
	}
	if len(signers) > MaxSigners {
		return errors.New(errors.PhaseInvoke, errors.KindInvalidArgument).
			Value(len(signers)).
			Detail("%d signers exceed %d", len(signers), MaxSigners).
			Build()
	}

	ixAddr, err := EncodeInstruction(env.Heap, ix)
	if err != nil {
		return err
	}
	infosAddr, err := EncodeAccountInfos(env.Heap, infos)
	if err != nil {
		return err
	}
	seedsAddr, err := EncodeSigners(env.Heap, signers)
	if err != nil {
		return err
	}

	status := env.Host.InvokeSigned(ctx, ixAddr, infosAddr, uint64(len(infos)), seedsAddr, uint64(len(signers)))
	if status != errors.Success {
		return errors.InvokeFailed(status)
	}
	return nil
}
