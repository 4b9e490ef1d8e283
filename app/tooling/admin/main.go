// This program performs administrative tasks against a stopped node's
// storage.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/dalyulbam/Class101LLL/app/tooling/admin/commands"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/genesis"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/storage/disk"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/storage/leveldb"
	"github.com/dalyulbam/Class101LLL/foundation/logger"
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
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args        conf.Args
		GenesisPath string `conf:"default:zblock/genesis.json"`
		Storage     string `conf:"default:disk,help:disk|leveldb"`
		DBPath      string `conf:"default:zblock/blocks.db"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger storage administration",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.GenesisPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		gen = genesis.Default()
	case err != nil:
		return fmt.Errorf("loading genesis: %w", err)
	}

	var storage database.Serializer
	switch cfg.Storage {
	case "disk":
		storage, err = disk.New(cfg.DBPath)
	case "leveldb":
		storage, err = leveldb.New(cfg.DBPath)
	default:
		err = fmt.Errorf("unknown storage kind %q", cfg.Storage)
	}
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...))
	}

	// Loading the database validates every stored block.
	db, err := database.New(gen, storage, ev)
	if err != nil {
		storage.Close()
		return err
	}
	defer db.Close()

	return processCommands(cfg.Args, db)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, db *database.Database) error {
	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(os.Stdout, args.Num(1), db); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "blocks":
		if err := commands.Blocks(os.Stdout, args.Num(1), db); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}
	case "snapshot":
		if err := db.Save(); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		fmt.Printf("Snapshot saved at height %d\n", db.Length())
	default:
		fmt.Println("bals [address]: print the balance of every address or one address")
		fmt.Println("blocks [index]: print the chain or one block")
		fmt.Println("snapshot:       write a utxo snapshot for the stored chain")
	}

	return nil
}
