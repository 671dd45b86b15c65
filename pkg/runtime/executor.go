package runtime

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/amoebit/migrator/pkg/accounts"
	"github.com/amoebit/migrator/pkg/svm/syscall"
	"github.com/amoebit/migrator/pkg/types"
)

// Executor errors
var (
	// ErrEmptyTransaction indicates the instruction list was empty.
	ErrEmptyTransaction = errors.New("transaction has no instructions")
)

// Executor runs instruction batches against an accounts database.
// A batch executes atomically: either every instruction succeeds and
// all account changes commit in one write, or nothing is stored.
type Executor struct {
	db       accounts.DB
	registry *Registry

	computeUnitsLimit types.ComputeUnits
}

// NewExecutor creates an executor over the given database and registry.
func NewExecutor(db accounts.DB, registry *Registry) *Executor {
	return &Executor{
		db:                db,
		registry:          registry,
		computeUnitsLimit: types.MaxComputeUnitsPerTransaction,
	}
}

// SetComputeUnitsLimit sets the compute budget per transaction.
func (e *Executor) SetComputeUnitsLimit(limit types.ComputeUnits) {
	e.computeUnitsLimit = limit
}

// ExecuteTransaction executes the instructions in order against a
// working copy of the referenced accounts. On success the working copy
// is committed to the database in a single batch and the per-account
// deltas are reported; on failure the database is untouched.
func (e *Executor) ExecuteTransaction(instructions []types.Instruction) (*types.TransactionResult, error) {
	result := &types.TransactionResult{
		Logs:          make([]string, 0),
		AccountDeltas: make([]types.AccountDelta, 0),
	}

	if len(instructions) == 0 {
		result.Error = ErrEmptyTransaction
		return result, nil
	}

	working, snapshots, err := e.loadReferencedAccounts(instructions)
	if err != nil {
		result.Error = fmt.Errorf("failed to load accounts: %w", err)
		return result, nil
	}

	for i := range instructions {
		inst := &instructions[i]

		infos := make([]*syscall.AccountInfo, len(inst.Accounts))
		for j, meta := range inst.Accounts {
			infos[j] = syscall.NewAccountInfo(
				meta.Pubkey, working[meta.Pubkey], meta.IsSigner, meta.IsWritable)
		}

		ctx := syscall.NewExecutionContext(
			inst.ProgramID, infos, inst.Data, uint64(e.computeUnitsLimit))
		ctx.Invoker = e.registry

		err := e.registry.Execute(ctx)
		result.Logs = append(result.Logs, ctx.Logs()...)
		result.ComputeUnits = types.ComputeUnits(ctx.ComputeUnitsConsumed())
		if err != nil {
			result.Error = fmt.Errorf("instruction %d failed: %w", i, err)
			return result, nil
		}

		// Fold writable-account changes back into the working copy so
		// later instructions observe them.
		for j, meta := range inst.Accounts {
			if meta.IsWritable {
				working[meta.Pubkey] = infos[j].ToAccount()
			}
		}
	}

	updates := make([]types.AccountUpdate, 0, len(working))
	for pubkey, account := range working {
		old := snapshots[pubkey]
		if accountsEqual(old, account) {
			continue
		}
		// Referenced but never funded: nothing to store.
		if old == nil && account.IsEmpty() {
			continue
		}
		updates = append(updates, types.AccountUpdate{Pubkey: pubkey, Account: account})
		result.AccountDeltas = append(result.AccountDeltas, types.AccountDelta{
			Pubkey:     pubkey,
			OldAccount: old,
			NewAccount: account.Clone(),
		})
	}
	if len(updates) > 0 {
		if err := e.db.SetAccounts(updates); err != nil {
			result.Error = fmt.Errorf("failed to commit accounts: %w", err)
			return result, nil
		}
	}

	result.Success = true
	return result, nil
}

// loadReferencedAccounts loads every account the instructions mention
// into a working map, plus a pristine snapshot for delta reporting.
// Missing accounts come up empty and system-owned, matching what a
// program sees for an address that was never funded.
func (e *Executor) loadReferencedAccounts(instructions []types.Instruction) (map[types.Pubkey]*types.Account, map[types.Pubkey]*types.Account, error) {
	working := make(map[types.Pubkey]*types.Account)
	snapshots := make(map[types.Pubkey]*types.Account)

	for i := range instructions {
		for _, meta := range instructions[i].Accounts {
			if _, ok := working[meta.Pubkey]; ok {
				continue
			}

			account, err := e.db.GetAccount(meta.Pubkey)
			if err != nil {
				return nil, nil, err
			}
			if account == nil {
				working[meta.Pubkey] = types.NewAccount(0, types.SystemProgramID)
				snapshots[meta.Pubkey] = nil
				continue
			}
			working[meta.Pubkey] = account
			snapshots[meta.Pubkey] = account.Clone()
		}
	}

	return working, snapshots, nil
}

// accountsEqual reports whether two accounts hold identical state.
func accountsEqual(a, b *types.Account) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Lamports == b.Lamports &&
		a.Owner == b.Owner &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}
