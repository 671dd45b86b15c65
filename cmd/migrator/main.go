// Amoebit Migrator: offline runner for the NFT migration program.
//
// This is the operator entry point: it loads an account snapshot (or
// opens an existing account store), registers the native programs,
// compiles a named migration request into a runnable instruction,
// executes it atomically and persists the result.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/amoebit/migrator/pkg/accounts"
	"github.com/amoebit/migrator/pkg/runtime"
	"github.com/amoebit/migrator/pkg/snapshot"
	"github.com/amoebit/migrator/pkg/svm/programs/metadata"
	"github.com/amoebit/migrator/pkg/svm/programs/migrate"
	"github.com/amoebit/migrator/pkg/types"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

// Configuration flags
var (
	configFile   = flag.String("config", "migrator.json", "Path to JSON configuration file")
	dataDir      = flag.String("data-dir", "", "Data directory for the account store (:memory: for in-memory)")
	snapshotPath = flag.String("snapshot", "", "Account snapshot to load before executing (.json or .json.zst)")
	requestPath  = flag.String("request", "", "Migration request file (required)")
	outPath      = flag.String("out", "", "Write the post-migration account states to this snapshot file")
	programIDArg = flag.String("program-id", "", "Migration program ID")
	computeLimit = flag.Uint64("compute-limit", 0, "Compute unit budget per transaction")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// Config represents the JSON configuration file structure.
type Config struct {
	General   GeneralConfig   `json:"general"`
	Migration MigrationConfig `json:"migration"`
}

// GeneralConfig holds general application settings.
type GeneralConfig struct {
	DataDir string `json:"data_dir"`
}

// MigrationConfig holds migration program settings.
type MigrationConfig struct {
	ProgramID                string   `json:"program_id"`
	AllowedUpdateAuthorities []string `json:"allowed_update_authorities"`
	ComputeUnitsLimit        uint64   `json:"compute_units_limit"`
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DataDir: ":memory:",
		},
		Migration: MigrationConfig{
			ComputeUnitsLimit: uint64(types.MaxComputeUnitsPerTransaction),
		},
	}
}

// loadConfig loads configuration from the specified JSON file.
// If the file doesn't exist, it returns the default configuration.
func loadConfig(configPath string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file not found at %s, using defaults", configPath)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	log.Printf("Loaded configuration from %s", configPath)
	return cfg, nil
}

// applyConfigWithCLIOverrides applies config values and lets CLI flags
// override them when explicitly set.
func applyConfigWithCLIOverrides(cfg Config) {
	flagSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagSet[f.Name] = true
	})

	if !flagSet["data-dir"] {
		*dataDir = cfg.General.DataDir
	}
	if !flagSet["program-id"] {
		*programIDArg = cfg.Migration.ProgramID
	}
	if !flagSet["compute-limit"] {
		*computeLimit = cfg.Migration.ComputeUnitsLimit
	}
}

// MigrationRequest names the accounts of one migration by role. The
// derived accounts (metadata, authority) may be omitted; they are
// recomputed from the mint and program ID.
type MigrationRequest struct {
	Payer              string `json:"payer"`
	RuggedMint         string `json:"rugged_mint"`
	Holding            string `json:"holding"`
	Mint               string `json:"mint"`
	Metadata           string `json:"metadata,omitempty"`
	Authority          string `json:"authority,omitempty"`
	RuggedMetadata     string `json:"rugged_metadata"`
	RuggedHolding      string `json:"rugged_holding"`
	NewUpdateAuthority string `json:"new_update_authority"`
}

// loadRequest reads a migration request file.
func loadRequest(path string) (*MigrationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	req := &MigrationRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}
	return req, nil
}

// Compile turns the named request into the program's positional
// instruction, deriving the metadata and authority addresses when the
// request leaves them blank.
func (req *MigrationRequest) Compile(programID types.Pubkey) (types.Instruction, []types.Pubkey, error) {
	parse := func(role, value string) (types.Pubkey, error) {
		if value == "" {
			return types.Pubkey{}, fmt.Errorf("request is missing %q", role)
		}
		pk, err := types.PubkeyFromBase58(value)
		if err != nil {
			return types.Pubkey{}, fmt.Errorf("bad %q pubkey: %w", role, err)
		}
		return pk, nil
	}

	var inst types.Instruction
	payer, err := parse("payer", req.Payer)
	if err != nil {
		return inst, nil, err
	}
	ruggedMint, err := parse("rugged_mint", req.RuggedMint)
	if err != nil {
		return inst, nil, err
	}
	holding, err := parse("holding", req.Holding)
	if err != nil {
		return inst, nil, err
	}
	mint, err := parse("mint", req.Mint)
	if err != nil {
		return inst, nil, err
	}
	ruggedMeta, err := parse("rugged_metadata", req.RuggedMetadata)
	if err != nil {
		return inst, nil, err
	}
	ruggedHolding, err := parse("rugged_holding", req.RuggedHolding)
	if err != nil {
		return inst, nil, err
	}
	newAuthority, err := parse("new_update_authority", req.NewUpdateAuthority)
	if err != nil {
		return inst, nil, err
	}

	var metadataKey types.Pubkey
	if req.Metadata != "" {
		metadataKey, err = parse("metadata", req.Metadata)
	} else {
		metadataKey, _, err = metadata.DeriveMetadataAddress(mint)
	}
	if err != nil {
		return inst, nil, err
	}

	var authority types.Pubkey
	if req.Authority != "" {
		authority, err = parse("authority", req.Authority)
	} else {
		authority, _, err = migrate.DeriveAuthority(programID)
	}
	if err != nil {
		return inst, nil, err
	}

	inst = types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: ruggedMint, IsWritable: true},
			{Pubkey: types.SystemProgramID},
			{Pubkey: holding, IsWritable: true},
			{Pubkey: mint, IsWritable: true},
			{Pubkey: metadataKey, IsWritable: true},
			{Pubkey: types.TokenMetadataProgramID},
			{Pubkey: types.SysvarRentID},
			{Pubkey: authority},
			{Pubkey: types.TokenProgramID},
			{Pubkey: ruggedMeta},
			{Pubkey: ruggedHolding, IsWritable: true},
			{Pubkey: newAuthority},
		},
	}

	touched := []types.Pubkey{
		payer, ruggedMint, holding, mint, metadataKey,
		authority, ruggedMeta, ruggedHolding, newAuthority,
	}
	return inst, touched, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Amoebit Migrator %s (%s)\n", Version, GitCommit)
		os.Exit(0)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting Amoebit Migrator %s", Version)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyConfigWithCLIOverrides(cfg)

	if *requestPath == "" {
		log.Fatal("No migration request file given (use -request)")
	}
	if *programIDArg == "" {
		log.Fatal("No migration program ID configured (use -program-id or the config file)")
	}
	programID, err := types.PubkeyFromBase58(*programIDArg)
	if err != nil {
		log.Fatalf("Bad program ID: %v", err)
	}

	migrateCfg := migrate.Config{}
	for _, s := range cfg.Migration.AllowedUpdateAuthorities {
		pk, err := types.PubkeyFromBase58(s)
		if err != nil {
			log.Fatalf("Bad allow-listed authority %q: %v", s, err)
		}
		migrateCfg.AllowedUpdateAuthorities = append(migrateCfg.AllowedUpdateAuthorities, pk)
	}

	// Open the account store.
	var db accounts.DB
	if *dataDir == ":memory:" || *dataDir == "" {
		db = accounts.NewMemoryDB()
		log.Println("Using in-memory account store")
	} else {
		dbPath := filepath.Join(*dataDir, "accounts")
		if err := os.MkdirAll(dbPath, 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		db, err = accounts.NewBadgerDB(dbPath)
		if err != nil {
			log.Fatalf("Failed to open account store: %v", err)
		}
		log.Printf("Opened BadgerDB at %s", dbPath)
	}
	defer db.Close()

	if *snapshotPath != "" {
		n, err := snapshot.LoadIntoDB(*snapshotPath, db)
		if err != nil {
			log.Fatalf("Failed to load snapshot: %v", err)
		}
		log.Printf("Loaded %d accounts from %s", n, *snapshotPath)
	}

	registry := runtime.NewDefaultRegistry(programID, migrateCfg)
	log.Printf("Registered %d native programs", registry.Count())

	executor := runtime.NewExecutor(db, registry)
	if *computeLimit > 0 {
		executor.SetComputeUnitsLimit(types.ComputeUnits(*computeLimit))
	}

	req, err := loadRequest(*requestPath)
	if err != nil {
		log.Fatalf("Failed to load migration request: %v", err)
	}
	inst, touched, err := req.Compile(programID)
	if err != nil {
		log.Fatalf("Failed to compile migration request: %v", err)
	}

	log.Printf("Executing migration for mint %s", req.Mint)
	result, err := executor.ExecuteTransaction([]types.Instruction{inst})
	if err != nil {
		log.Fatalf("Execution error: %v", err)
	}

	for _, line := range result.Logs {
		log.Printf("  %s", line)
	}
	log.Printf("Compute units consumed: %d", result.ComputeUnits)

	if !result.Success {
		log.Fatalf("Migration failed: %v", result.Error)
	}

	log.Printf("Migration succeeded, %d accounts changed:", len(result.AccountDeltas))
	for _, delta := range result.AccountDeltas {
		switch {
		case delta.IsCreation():
			log.Printf("  %s created (%d bytes)", delta.Pubkey, delta.NewAccount.DataLen())
		case delta.IsModification():
			log.Printf("  %s modified (%d bytes)", delta.Pubkey, delta.NewAccount.DataLen())
		default:
			log.Printf("  %s deleted", delta.Pubkey)
		}
	}

	if *outPath != "" {
		snap, err := snapshot.FromDB(db, touched)
		if err != nil {
			log.Fatalf("Failed to capture post-migration state: %v", err)
		}
		if err := snap.Save(*outPath); err != nil {
			log.Fatalf("Failed to write snapshot: %v", err)
		}
		log.Printf("Wrote %d accounts to %s", snap.Count(), *outPath)
	}
}
