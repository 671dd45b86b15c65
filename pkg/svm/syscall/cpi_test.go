package syscall

import (
	"errors"
	"testing"

	"github.com/amoebit/migrator/pkg/types"
)

// recordingInvoker records every CPI it receives and applies an
// optional mutation to the callee context.
type recordingInvoker struct {
	calls  []types.Pubkey
	mutate func(ctx *ExecutionContext) error
}

func (r *recordingInvoker) Execute(ctx *ExecutionContext) error {
	r.calls = append(r.calls, ctx.ProgramID)
	if r.mutate != nil {
		return r.mutate(ctx)
	}
	return nil
}

func newTestInfo(pubkey types.Pubkey, lamports uint64, data []byte, signer, writable bool) *AccountInfo {
	return NewAccountInfo(pubkey, &types.Account{
		Lamports: types.Lamports(lamports),
		Data:     data,
	}, signer, writable)
}

func TestInvoke_PropagatesWritableChanges(t *testing.T) {
	caller := pdaTestPubkey("caller_program")
	callee := pdaTestPubkey("callee_program")
	target := pdaTestPubkey("target_account")

	invoker := &recordingInvoker{
		mutate: func(ctx *ExecutionContext) error {
			acc, err := ctx.GetAccount(target)
			if err != nil {
				return err
			}
			*acc.Lamports = 999
			acc.Data[0] = 0xAB
			return nil
		},
	}

	accounts := []*AccountInfo{
		newTestInfo(target, 100, []byte{0x00, 0x01}, false, true),
	}
	ctx := NewExecutionContext(caller, accounts, nil, 1_000_000)
	ctx.Invoker = invoker

	err := ctx.Invoke(types.Instruction{
		ProgramID: callee,
		Accounts: []types.AccountMeta{
			{Pubkey: target, IsWritable: true},
		},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if len(invoker.calls) != 1 || invoker.calls[0] != callee {
		t.Errorf("expected one call to %s, got %v", callee, invoker.calls)
	}
	if *accounts[0].Lamports != 999 {
		t.Errorf("lamports change not propagated, got %d", *accounts[0].Lamports)
	}
	if accounts[0].Data[0] != 0xAB {
		t.Error("data change not propagated")
	}
}

func TestInvoke_ReadOnlyChangesDiscarded(t *testing.T) {
	caller := pdaTestPubkey("caller_program")
	callee := pdaTestPubkey("callee_program")
	target := pdaTestPubkey("target_account")

	invoker := &recordingInvoker{
		mutate: func(ctx *ExecutionContext) error {
			acc, _ := ctx.GetAccount(target)
			*acc.Lamports = 999
			return nil
		},
	}

	accounts := []*AccountInfo{
		newTestInfo(target, 100, nil, false, true),
	}
	ctx := NewExecutionContext(caller, accounts, nil, 1_000_000)
	ctx.Invoker = invoker

	err := ctx.Invoke(types.Instruction{
		ProgramID: callee,
		Accounts: []types.AccountMeta{
			{Pubkey: target, IsWritable: false},
		},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if *accounts[0].Lamports != 100 {
		t.Errorf("read-only account was modified in caller view: %d", *accounts[0].Lamports)
	}
}

func TestInvoke_SignerEscalationRejected(t *testing.T) {
	caller := pdaTestPubkey("caller_program")
	callee := pdaTestPubkey("callee_program")
	target := pdaTestPubkey("target_account")

	accounts := []*AccountInfo{
		newTestInfo(target, 100, nil, false, true),
	}
	ctx := NewExecutionContext(caller, accounts, nil, 1_000_000)
	ctx.Invoker = &recordingInvoker{}

	err := ctx.Invoke(types.Instruction{
		ProgramID: callee,
		Accounts: []types.AccountMeta{
			{Pubkey: target, IsSigner: true},
		},
	})
	if !errors.Is(err, ErrPrivilegeEscalation) {
		t.Errorf("expected ErrPrivilegeEscalation, got %v", err)
	}
}

func TestInvokeSigned_GrantsDerivedSigner(t *testing.T) {
	caller := pdaTestPubkey("caller_program")
	callee := pdaTestPubkey("callee_program")

	seeds := [][]byte{[]byte("amoebit_minter")}
	pda, bump, err := FindProgramAddressSync(seeds, caller)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}

	var sawSigner bool
	invoker := &recordingInvoker{
		mutate: func(ctx *ExecutionContext) error {
			acc, err := ctx.GetAccount(pda)
			if err != nil {
				return err
			}
			sawSigner = acc.IsSigner
			return nil
		},
	}

	accounts := []*AccountInfo{
		newTestInfo(pda, 0, nil, false, false),
	}
	ctx := NewExecutionContext(caller, accounts, nil, 1_000_000)
	ctx.Invoker = invoker

	err = ctx.InvokeSigned(types.Instruction{
		ProgramID: callee,
		Accounts: []types.AccountMeta{
			{Pubkey: pda, IsSigner: true},
		},
	}, [][][]byte{append(append([][]byte{}, seeds...), []byte{bump})})
	if err != nil {
		t.Fatalf("InvokeSigned failed: %v", err)
	}

	if !sawSigner {
		t.Error("derived address should be a signer in the callee")
	}
}

func TestInvoke_DepthLimit(t *testing.T) {
	caller := pdaTestPubkey("caller_program")
	callee := pdaTestPubkey("callee_program")

	ctx := NewExecutionContext(caller, nil, nil, 1_000_000)
	ctx.Invoker = &recordingInvoker{}
	ctx.Depth = MaxCPIDepth

	err := ctx.Invoke(types.Instruction{ProgramID: callee})
	if !errors.Is(err, ErrCPIDepthExceeded) {
		t.Errorf("expected ErrCPIDepthExceeded, got %v", err)
	}
}

func TestInvoke_NoInvoker(t *testing.T) {
	ctx := NewExecutionContext(pdaTestPubkey("caller_program"), nil, nil, 1_000_000)

	err := ctx.Invoke(types.Instruction{ProgramID: pdaTestPubkey("callee_program")})
	if !errors.Is(err, ErrNoInvoker) {
		t.Errorf("expected ErrNoInvoker, got %v", err)
	}
}

func TestInvoke_CalleeFailurePropagates(t *testing.T) {
	caller := pdaTestPubkey("caller_program")
	callee := pdaTestPubkey("callee_program")
	target := pdaTestPubkey("target_account")
	boom := errors.New("callee rejected")

	invoker := &recordingInvoker{
		mutate: func(ctx *ExecutionContext) error {
			acc, _ := ctx.GetAccount(target)
			*acc.Lamports = 999
			return boom
		},
	}

	accounts := []*AccountInfo{
		newTestInfo(target, 100, nil, false, true),
	}
	ctx := NewExecutionContext(caller, accounts, nil, 1_000_000)
	ctx.Invoker = invoker

	err := ctx.Invoke(types.Instruction{
		ProgramID: callee,
		Accounts: []types.AccountMeta{
			{Pubkey: target, IsWritable: true},
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callee error, got %v", err)
	}

	// Failed CPI must not leak changes back to the caller.
	if *accounts[0].Lamports != 100 {
		t.Errorf("failed CPI leaked changes: %d", *accounts[0].Lamports)
	}
}
