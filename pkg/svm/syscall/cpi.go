package syscall

import (
	"errors"
	"fmt"

	"github.com/amoebit/migrator/pkg/types"
)

// CPI limits and errors
const (
	// MaxCPIDepth is the maximum nesting depth for cross-program
	// invocations (4 levels below the top-level instruction).
	MaxCPIDepth = 4

	// CUInvoke is the compute cost charged per invocation.
	CUInvoke = 1000
)

var (
	ErrCPIDepthExceeded    = errors.New("cross-program invocation depth exceeded")
	ErrNoInvoker           = errors.New("no invoker registered for cross-program invocation")
	ErrPrivilegeEscalation = errors.New("instruction requires privileges the caller does not hold")
)

// Invoke performs a cross-program invocation with no PDA signers.
func (ctx *ExecutionContext) Invoke(inst types.Instruction) error {
	return ctx.InvokeSigned(inst, nil)
}

// InvokeSigned performs a cross-program invocation. Each entry in
// signerSeeds is a seed set that, together with the calling program's
// ID, derives a program address; those addresses are granted signer
// privilege in the callee. This mirrors on-chain invoke_signed: a
// program proves control of a PDA by reproducing its seeds.
func (ctx *ExecutionContext) InvokeSigned(inst types.Instruction, signerSeeds [][][]byte) error {
	if ctx.Depth >= MaxCPIDepth {
		return ErrCPIDepthExceeded
	}
	if ctx.Invoker == nil {
		return ErrNoInvoker
	}
	if err := ctx.ConsumeComputeUnits(CUInvoke); err != nil {
		return err
	}

	pdaSigners := make(map[types.Pubkey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		pda, err := CreateProgramAddress(seeds, ctx.ProgramID)
		if err != nil {
			return fmt.Errorf("invalid signer seeds: %w", err)
		}
		pdaSigners[pda] = true
	}

	calleeAccounts, err := ctx.prepareCalleeAccounts(inst.Accounts, pdaSigners)
	if err != nil {
		return err
	}

	child := ctx.createChildContext(inst.ProgramID, calleeAccounts, inst.Data)

	ctx.Log("Program %s invoke [%d]", inst.ProgramID, child.Depth)
	err = ctx.Invoker.Execute(child)
	if err != nil {
		ctx.Log("Program %s failed: %v", inst.ProgramID, err)
		return err
	}
	ctx.Log("Program %s success", inst.ProgramID)

	return ctx.propagateAccountChanges(calleeAccounts, inst.Accounts)
}

// prepareCalleeAccounts resolves instruction metas against the caller's
// accounts and builds the callee's view. Privileges never escalate: the
// callee sees an account as signer or writable only when the caller
// holds that privilege or the account is a derived signer.
func (ctx *ExecutionContext) prepareCalleeAccounts(metas []types.AccountMeta, pdaSigners map[types.Pubkey]bool) ([]*AccountInfo, error) {
	callee := make([]*AccountInfo, len(metas))
	for i, meta := range metas {
		callerAcc, err := ctx.GetAccount(meta.Pubkey)
		if err != nil {
			return nil, err
		}

		if meta.IsSigner && !callerAcc.IsSigner && !pdaSigners[meta.Pubkey] {
			return nil, fmt.Errorf("%w: %s is not a signer", ErrPrivilegeEscalation, meta.Pubkey)
		}
		if meta.IsWritable && !callerAcc.IsWritable {
			return nil, fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.Pubkey)
		}

		info := callerAcc.Clone()
		info.IsSigner = meta.IsSigner
		info.IsWritable = meta.IsWritable
		callee[i] = info
	}
	return callee, nil
}

// propagateAccountChanges copies writable-account modifications from
// the callee view back to the caller's accounts.
func (ctx *ExecutionContext) propagateAccountChanges(calleeAccounts []*AccountInfo, metas []types.AccountMeta) error {
	for i, calleeAcc := range calleeAccounts {
		if !metas[i].IsWritable {
			continue
		}

		callerAcc, err := ctx.GetAccount(calleeAcc.Pubkey)
		if err != nil {
			return err
		}

		*callerAcc.Lamports = *calleeAcc.Lamports
		callerAcc.Owner = calleeAcc.Owner
		if len(calleeAcc.Data) != len(callerAcc.Data) {
			callerAcc.Data = make([]byte, len(calleeAcc.Data))
		}
		copy(callerAcc.Data, calleeAcc.Data)
	}
	return nil
}
