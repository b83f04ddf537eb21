package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/okilalu/Blockchain/app/services/node/handlers"
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/disk"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/level"
	"github.com/okilalu/Blockchain/foundation/blockchain/genesis"
	"github.com/okilalu/Blockchain/foundation/blockchain/peer"
	"github.com/okilalu/Blockchain/foundation/blockchain/state"
	"github.com/okilalu/Blockchain/foundation/blockchain/worker"
	"github.com/okilalu/Blockchain/foundation/events"
	"github.com/okilalu/Blockchain/foundation/logger"
	"github.com/okilalu/Blockchain/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
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

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
		}
		State struct {
			MinerName     string        `conf:"default:miner1"`
			Storage       string        `conf:"default:disk,help:disk or level"`
			DBPath        string        `conf:"default:zblock/blocks/"`
			GenesisPath   string        `conf:"default:zblock/genesis.json"`
			KnownPeers    []string      `conf:"default:0.0.0.0:9080;0.0.0.0:9180"`
			SyncInterval  time.Duration `conf:"default:1m"`
			PeerTimeout   time.Duration `conf:"default:5s"`
			PeerFetchRate int           `conf:"default:10"`
			AutoMine      bool          `conf:"default:false"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "proof of work record ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(` _     _____ ____   ____ _____ ____  `)
	fmt.Println(`| |   | ____|  _ \ / ___| ____|  _ \ `)
	fmt.Println(`| |   |  _| | | | | |  _|  _| | |_) |`)
	fmt.Println(`| |___| |___| |_| | |_| | |___|  _ < `)
	fmt.Println(`|_____|_____|____/ \____|_____|_| \_\ `)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for the addresses of
	// the keys blocks are signed with. The names come from the file names in
	// the zblock/accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Blockchain Support

	// Need to load the private key file for the configured miner so the blocks
	// this node mines can be signed and verified by its peers.
	privateKey, publicKey, err := ns.KeyPair(cfg.State.MinerName)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}
	log.Infow("startup", "status", "signing key loaded", "name", cfg.State.MinerName, "publickey", publicKey)

	// The genesis file holds the rules every block of this chain must follow.
	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}
	log.Infow("startup", "status", "genesis loaded", "difficulty", gen.Difficulty, "keyfield", gen.KeyField, "recordsperblock", gen.RecordsPerBlock)

	// A peer set is a collection of known nodes in the network so chains can
	// be reconciled.
	peerSet := peer.NewPeerSet()
	for _, host := range cfg.State.KnownPeers {
		pr, err := peer.New(host)
		if err != nil {
			return fmt.Errorf("invalid known peer %q: %w", host, err)
		}
		peerSet.Add(pr)
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. For now, these raw messages are sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// Construct the block storage so the chain survives a restart. Disk
	// storage writes every block as its own file, level keeps them in LevelDB.
	storage, err := openStorage(cfg.State.Storage, cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("unable to open block storage: %w", err)
	}

	// The state value represents the blockchain node and manages the blockchain
	// database and provides an API for application support.
	state, err := state.New(state.Config{
		Signer:        privateKey,
		Host:          cfg.Web.PrivateHost,
		Genesis:       gen,
		Storage:       storage,
		KnownPeers:    peerSet,
		PeerTimeout:   cfg.State.PeerTimeout,
		PeerFetchRate: cfg.State.PeerFetchRate,
		AutoMine:      cfg.State.AutoMine,
		EvHandler:     ev,
	})
	if err != nil {
		return err
	}
	defer state.Shutdown()

	// The worker package implements the different workflows such as mining
	// and the periodic reconciliation with peers. The worker will register
	// itself with the state.
	worker.Run(state, cfg.State.SyncInterval, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, state)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    state,
		NS:       ns,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct the mux for the private API calls.
	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    state,
	})

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// openStorage constructs the block storage of the specified kind.
func openStorage(kind string, dbPath string) (database.Storage, error) {
	switch kind {
	case "disk":
		return disk.New(dbPath)
	case "level":
		return level.New(dbPath)
	}

	return nil, fmt.Errorf("unknown storage %q", kind)
}
