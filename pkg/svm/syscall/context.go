// Package syscall provides the execution context shared by native
// programs: account access, compute metering, logging, program derived
// addresses and cross-program invocation.
package syscall

import (
	"errors"
	"fmt"
	"sync"

	"github.com/amoebit/migrator/pkg/types"
)

// Context errors
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNotWritable  = errors.New("account is not writable")
	ErrAccountNotSigner    = errors.New("account is not a signer")
	ErrComputeExhausted    = errors.New("compute units exhausted")
	ErrInvalidAccountIndex = errors.New("invalid account index")
)

// Limits for execution
const (
	MaxLogMessages      = 64
	MaxLogMessageLength = 10000
	MaxInstructionData  = 1232
	MaxAccountDataSize  = 10 * 1024 * 1024 // 10MB
)

// AccountInfo represents account information available to a program.
type AccountInfo struct {
	Pubkey     types.Pubkey
	Lamports   *uint64 // Pointer allows modification detection
	Data       []byte
	Owner      types.Pubkey
	Executable bool
	RentEpoch  uint64
	IsSigner   bool
	IsWritable bool
}

// NewAccountInfo builds an AccountInfo from a stored account and the
// instruction-level signer/writable flags.
func NewAccountInfo(pubkey types.Pubkey, account *types.Account, isSigner, isWritable bool) *AccountInfo {
	lamports := uint64(account.Lamports)
	info := &AccountInfo{
		Pubkey:     pubkey,
		Lamports:   &lamports,
		Owner:      account.Owner,
		Executable: account.Executable,
		RentEpoch:  uint64(account.RentEpoch),
		IsSigner:   isSigner,
		IsWritable: isWritable,
	}
	if account.Data != nil {
		info.Data = make([]byte, len(account.Data))
		copy(info.Data, account.Data)
	}
	return info
}

// Clone creates a deep copy of AccountInfo.
func (a *AccountInfo) Clone() *AccountInfo {
	if a == nil {
		return nil
	}
	lamports := *a.Lamports
	clone := &AccountInfo{
		Pubkey:     a.Pubkey,
		Lamports:   &lamports,
		Owner:      a.Owner,
		Executable: a.Executable,
		RentEpoch:  a.RentEpoch,
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}
	if a.Data != nil {
		clone.Data = make([]byte, len(a.Data))
		copy(clone.Data, a.Data)
	}
	return clone
}

// ToAccount converts the AccountInfo back into a stored account.
func (a *AccountInfo) ToAccount() *types.Account {
	acc := &types.Account{
		Lamports:   types.Lamports(*a.Lamports),
		Owner:      a.Owner,
		Executable: a.Executable,
		RentEpoch:  types.Epoch(a.RentEpoch),
	}
	if a.Data != nil {
		acc.Data = make([]byte, len(a.Data))
		copy(acc.Data, a.Data)
	}
	return acc
}

// ComputeMeter tracks compute unit consumption across a transaction,
// shared between a top-level context and its CPI children.
type ComputeMeter struct {
	mu        sync.Mutex
	remaining uint64
	limit     uint64
}

// NewComputeMeter creates a meter with the given budget.
func NewComputeMeter(limit uint64) *ComputeMeter {
	return &ComputeMeter{remaining: limit, limit: limit}
}

// Consume deducts compute units, failing when the budget is exhausted.
func (m *ComputeMeter) Consume(units uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if units > m.remaining {
		m.remaining = 0
		return ErrComputeExhausted
	}
	m.remaining -= units
	return nil
}

// Remaining returns the remaining compute units.
func (m *ComputeMeter) Remaining() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Consumed returns the consumed compute units.
func (m *ComputeMeter) Consumed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limit - m.remaining
}

// LogSink collects program log messages, shared between a top-level
// context and its CPI children.
type LogSink struct {
	mu      sync.Mutex
	entries []string
}

// NewLogSink creates an empty log sink.
func NewLogSink() *LogSink {
	return &LogSink{entries: make([]string, 0, MaxLogMessages)}
}

// Log appends a message, truncating overlong entries and dropping
// messages past the limit.
func (s *LogSink) Log(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= MaxLogMessages {
		return
	}
	if len(message) > MaxLogMessageLength {
		message = message[:MaxLogMessageLength]
	}
	s.entries = append(s.entries, message)
}

// Entries returns a copy of all log messages.
func (s *LogSink) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]string, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// Invoker executes a program for cross-program invocation. The runtime
// registry implements this; tests substitute stubs to observe CPI
// traffic without executing real programs.
type Invoker interface {
	Execute(ctx *ExecutionContext) error
}

// ExecutionContext holds the state visible to a single program
// invocation: the program ID, its account list, instruction data, and
// the transaction-wide meter, log sink and invoker.
type ExecutionContext struct {
	ProgramID       types.Pubkey
	Accounts        []*AccountInfo
	InstructionData []byte

	// Depth of CPI nesting, 0 for top-level instructions.
	Depth int

	// Invoker dispatches nested invocations. Nil disables CPI.
	Invoker Invoker

	meter        *ComputeMeter
	sink         *LogSink
	accountIndex map[types.Pubkey]int
}

// NewExecutionContext creates a top-level execution context.
func NewExecutionContext(programID types.Pubkey, accounts []*AccountInfo, instructionData []byte, computeUnits uint64) *ExecutionContext {
	ctx := &ExecutionContext{
		ProgramID:       programID,
		Accounts:        accounts,
		InstructionData: instructionData,
		meter:           NewComputeMeter(computeUnits),
		sink:            NewLogSink(),
		accountIndex:    make(map[types.Pubkey]int, len(accounts)),
	}
	for i, acc := range accounts {
		ctx.accountIndex[acc.Pubkey] = i
	}
	return ctx
}

// ConsumeComputeUnits deducts compute units from the shared meter.
func (ctx *ExecutionContext) ConsumeComputeUnits(units uint64) error {
	return ctx.meter.Consume(units)
}

// ComputeUnitsRemaining returns remaining compute units.
func (ctx *ExecutionContext) ComputeUnitsRemaining() uint64 {
	return ctx.meter.Remaining()
}

// ComputeUnitsConsumed returns consumed compute units.
func (ctx *ExecutionContext) ComputeUnitsConsumed() uint64 {
	return ctx.meter.Consumed()
}

// Log appends a formatted message to the shared log sink.
func (ctx *ExecutionContext) Log(format string, args ...interface{}) {
	ctx.sink.Log(fmt.Sprintf(format, args...))
}

// Logs returns all log messages recorded so far.
func (ctx *ExecutionContext) Logs() []string {
	return ctx.sink.Entries()
}

// GetAccount returns an account by pubkey.
func (ctx *ExecutionContext) GetAccount(pubkey types.Pubkey) (*AccountInfo, error) {
	idx, ok := ctx.accountIndex[pubkey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey.String())
	}
	return ctx.Accounts[idx], nil
}

// GetAccountByIndex returns an account by position in the instruction's
// account list.
func (ctx *ExecutionContext) GetAccountByIndex(index int) (*AccountInfo, error) {
	if index < 0 || index >= len(ctx.Accounts) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAccountIndex, index)
	}
	return ctx.Accounts[index], nil
}

// GetWritableAccount returns a writable account by pubkey.
func (ctx *ExecutionContext) GetWritableAccount(pubkey types.Pubkey) (*AccountInfo, error) {
	acc, err := ctx.GetAccount(pubkey)
	if err != nil {
		return nil, err
	}
	if !acc.IsWritable {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotWritable, pubkey.String())
	}
	return acc, nil
}

// GetSignerAccount returns a signer account by pubkey.
func (ctx *ExecutionContext) GetSignerAccount(pubkey types.Pubkey) (*AccountInfo, error) {
	acc, err := ctx.GetAccount(pubkey)
	if err != nil {
		return nil, err
	}
	if !acc.IsSigner {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotSigner, pubkey.String())
	}
	return acc, nil
}

// AccountCount returns the number of accounts.
func (ctx *ExecutionContext) AccountCount() int {
	return len(ctx.Accounts)
}

// IsTopLevel returns true if this is not a CPI call.
func (ctx *ExecutionContext) IsTopLevel() bool {
	return ctx.Depth == 0
}

// createChildContext creates the context for a CPI callee. The child
// shares the compute meter, log sink and invoker with its parent.
func (ctx *ExecutionContext) createChildContext(programID types.Pubkey, accounts []*AccountInfo, instructionData []byte) *ExecutionContext {
	child := &ExecutionContext{
		ProgramID:       programID,
		Accounts:        accounts,
		InstructionData: instructionData,
		Depth:           ctx.Depth + 1,
		Invoker:         ctx.Invoker,
		meter:           ctx.meter,
		sink:            ctx.sink,
		accountIndex:    make(map[types.Pubkey]int, len(accounts)),
	}
	for i, acc := range accounts {
		child.accountIndex[acc.Pubkey] = i
	}
	return child
}
