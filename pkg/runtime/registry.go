// Package runtime wires the native programs together: a registry keyed
// by program ID dispatches top-level and nested invocations, and an
// executor runs instruction lists against an accounts database with
// all-or-nothing commit semantics.
package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/amoebit/migrator/pkg/svm/programs/metadata"
	"github.com/amoebit/migrator/pkg/svm/programs/migrate"
	"github.com/amoebit/migrator/pkg/svm/programs/token"
	"github.com/amoebit/migrator/pkg/svm/syscall"
	"github.com/amoebit/migrator/pkg/types"
)

// Registry errors
var (
	// ErrProgramNotFound indicates the program is not registered.
	ErrProgramNotFound = errors.New("program not found")
)

// Program is a native program the registry can dispatch to.
type Program interface {
	// Execute executes an instruction within the given context.
	Execute(ctx *syscall.ExecutionContext) error

	// GetProgramID returns the program's public key.
	GetProgramID() types.Pubkey
}

// Registry maps program IDs to their implementations. It implements
// syscall.Invoker, so nested invocations route back through the same
// program set as top-level instructions.
type Registry struct {
	mu       sync.RWMutex
	programs map[types.Pubkey]Program
	names    map[types.Pubkey]string
}

// NewRegistry creates an empty program registry.
func NewRegistry() *Registry {
	return &Registry{
		programs: make(map[types.Pubkey]Program),
		names:    make(map[types.Pubkey]string),
	}
}

// NewDefaultRegistry creates a registry with the token, metadata and
// migration programs registered.
func NewDefaultRegistry(migrationProgramID types.Pubkey, cfg migrate.Config) *Registry {
	r := NewRegistry()
	r.Register("Token Program", token.New())
	r.Register("Token Metadata Program", metadata.New())
	r.Register("Migration Program", migrate.NewWithConfig(migrationProgramID, cfg))
	return r
}

// Register registers a program under its own program ID.
func (r *Registry) Register(name string, p Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[p.GetProgramID()] = p
	r.names[p.GetProgramID()] = name
}

// Get returns the program registered for the given ID.
func (r *Registry) Get(id types.Pubkey) (Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[id]
	return p, ok
}

// Name returns the registered name for the given program ID.
func (r *Registry) Name(id types.Pubkey) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// Has reports whether a program is registered.
func (r *Registry) Has(id types.Pubkey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.programs[id]
	return ok
}

// List returns all registered program IDs.
func (r *Registry) List() []types.Pubkey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]types.Pubkey, 0, len(r.programs))
	for id := range r.programs {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of registered programs.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.programs)
}

// Execute implements syscall.Invoker by dispatching the context to the
// program registered for its program ID.
func (r *Registry) Execute(ctx *syscall.ExecutionContext) error {
	p, ok := r.Get(ctx.ProgramID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, ctx.ProgramID)
	}
	return p.Execute(ctx)
}
