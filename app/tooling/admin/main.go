// This program performs administrative tasks for the ledger node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/okilalu/Blockchain/app/tooling/admin/commands"
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/disk"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/level"
	"github.com/okilalu/Blockchain/foundation/blockchain/genesis"
	"github.com/okilalu/Blockchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("startup", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			Storage     string `conf:"default:disk,help:disk or level"`
			DBPath      string `conf:"default:zblock/blocks/"`
			GenesisPath string `conf:"default:zblock/genesis.json"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "proof of work record ledger admin",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	var storage database.Storage
	switch cfg.State.Storage {
	case "disk":
		storage, err = disk.New(cfg.State.DBPath)
	case "level":
		storage, err = level.New(cfg.State.DBPath)
	default:
		err = fmt.Errorf("unknown storage %q", cfg.State.Storage)
	}
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer storage.Close()

	log.Infow("admin", "command", cfg.Args.Num(0), "dbpath", cfg.State.DBPath)

	return processCommands(cfg.Args, storage, gen)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, storage database.Storage, gen genesis.Genesis) error {
	switch args.Num(0) {
	case "verify":
		if err := commands.Verify(os.Stdout, storage, gen); err != nil {
			return fmt.Errorf("verifying chain: %w", err)
		}

	case "blocks":
		if err := commands.Blocks(os.Stdout, storage, gen); err != nil {
			return fmt.Errorf("listing blocks: %w", err)
		}

	case "export":
		if err := commands.Export(os.Stdout, storage, args.Num(1)); err != nil {
			return fmt.Errorf("exporting chain: %w", err)
		}

	default:
		fmt.Println("verify:  validate the chain stored on disk")
		fmt.Println("blocks:  list the blocks stored on disk")
		fmt.Println("export:  write the chain in wire format to the file or stdout")
		fmt.Println("provide a command to get more help.")
		return commands.ErrHelp
	}

	return nil
}
