// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/elastic/gosigar"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/cache"
	"github.com/rainbowlabs/rainbow/co"
	"github.com/rainbowlabs/rainbow/genesis"
	"github.com/rainbowlabs/rainbow/log"
	"github.com/rainbowlabs/rainbow/logdb"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/metrics"
	"github.com/rainbowlabs/rainbow/rainbow"
	"github.com/rainbowlabs/rainbow/state"
)

var (
	metaStore       = "meta"
	genesisIDKey    = []byte("genesis-id")
	genesisDocKey   = []byte("genesis-doc")
	stateCacheItems = 65536
)

func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := &slog.LevelVar{}
	logLevel.Set(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.NewJSONHandler(os.Stdout, logLevel)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandler(os.Stderr, logLevel, useColor)
	}
	log.SetDefault(handler)
	return logLevel
}

func selectGenesis(ctx *cli.Context) *genesis.Genesis {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet()
	}
	gen, err := genesis.Load(path)
	if err != nil {
		fatal(fmt.Sprintf("load genesis [%v]: %v", path, err))
	}
	return gen
}

func dumpGenesis(gen *genesis.Genesis) {
	if !log.Root().Enabled(context.Background(), log.LevelTrace) {
		return
	}
	cfg := spew.ConfigState{Indent: "    ", DisablePointerAddresses: true, DisableCapacities: true}
	logger.Trace("genesis", "dump", cfg.Sdump(gen))
}

func makeInstanceDir(ctx *cli.Context, genesisID rainbow.Bytes32) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", genesisID.Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create instance dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func openMainDB(ctx *cli.Context, instanceDir string) *lvldb.LevelDB {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	// Ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	logger.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.Open(dir, &lvldb.Options{
		ReadCacheMB:            cacheMB * 3 / 4,
		WriteBufferMB:          cacheMB / 4,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		fatal(fmt.Sprintf("open main database [%v]: %v", dir, err))
	}
	return db
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/4 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 4)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func openLogDB(instanceDir string) *logdb.LogDB {
	dir := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open log database [%v]: %v", dir, err))
	}
	return db
}

func openMemLogDB() *logdb.LogDB {
	db, err := logdb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open log database: %v", err))
	}
	return db
}

type engine struct {
	exec    *state.Executor
	staker  *staker.Staker
	staking *token.Token
	reward  *token.Token
}

func (e *engine) tokens() map[string]*token.Token {
	return map[string]*token.Token{
		e.staking.Metadata().Symbol: e.staking,
		e.reward.Metadata().Symbol:  e.reward,
	}
}

func newEngine(mainDB *lvldb.LevelDB, gen *genesis.Genesis, observers ...staker.Observer) *engine {
	stateCache, err := cache.NewLRU(stateCacheItems)
	if err != nil {
		fatal(fmt.Sprintf("create state cache: %v", err))
	}
	e := &engine{exec: state.NewExecutor(mainDB.NewStore("state"), stateCache)}
	e.staking = token.New(gen.Tokens.Staking, e.exec)
	e.reward = token.New(gen.Tokens.Reward, e.exec)
	e.staker = staker.New(e.exec, staker.Options{
		StakingToken: e.staking,
		RewardToken:  e.reward,
		Observers:    observers,
	})
	return e
}

// initGenesis applies gen on first start, and makes sure a reopened database was built from gen.
func initGenesis(mainDB *lvldb.LevelDB, e *engine, gen *genesis.Genesis, genesisID rainbow.Bytes32) error {
	meta := mainDB.NewStore(metaStore)
	stored, err := meta.Get(genesisIDKey)
	if err != nil && !meta.IsNotFound(err) {
		return errors.Wrap(err, "read genesis id")
	}
	if stored != nil {
		if storedID := rainbow.BytesToBytes32(stored); storedID != genesisID {
			if doc, err := meta.Get(genesisDocKey); err == nil {
				if current, err := yaml.Marshal(gen); err == nil {
					fmt.Println("\nDiff genesis")
					fmt.Println(genesisDiff(doc, current))
				}
			}
			return errors.Errorf("genesis mismatch: database built from %v, want %v", storedID, genesisID)
		}
		logger.Debug("genesis already applied", "id", genesisID)
		return nil
	}

	if err := gen.Apply(context.Background(), e.exec, e.staker, e.staking, e.reward); err != nil {
		return errors.WithMessage(err, "apply genesis")
	}
	doc, err := yaml.Marshal(gen)
	if err != nil {
		return errors.Wrap(err, "encode genesis")
	}
	if err := meta.Put(genesisDocKey, doc); err != nil {
		return errors.Wrap(err, "write genesis doc")
	}
	if err := meta.Put(genesisIDKey, genesisID.Bytes()); err != nil {
		return errors.Wrap(err, "write genesis id")
	}
	logger.Info("genesis applied", "id", genesisID)
	return nil
}

func genesisDiff(stored, current []byte) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(stored)),
		B:        difflib.SplitLines(string(current)),
		FromFile: "Stored",
		ToFile:   "Current",
		Context:  1,
	})
	return diff
}

func startAPIServer(ctx *cli.Context, handler http.Handler, genesisID rainbow.Bytes32) (*http.Server, net.Listener, error) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	handler = handleXGenesisID(handler, genesisID)
	handler = requestBodyLimit(handler)
	return &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}, listener, nil
}

func startMetricsServer(addr string) (*http.Server, net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}
	router := http.NewServeMux()
	router.Handle("/metrics", metrics.HTTPHandler())
	return &http.Server{Handler: router, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}, listener, nil
}

// serve runs srv until ctx is done.
func serve(ctx context.Context, srv *http.Server, listener net.Listener) error {
	var goes co.Goes
	goes.Go(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer goes.Wait()

	if err := srv.Serve(listener); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func printStartupMessage(
	gen *genesis.Genesis,
	genesisID rainbow.Bytes32,
	instanceDir string,
	apiURL string,
	metricsURL string,
) {
	fmt.Printf(`Starting %v
    Genesis      [ %v ]
    Owner        [ %v ]
    Tokens       [ %v / %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
`,
		"Rainbow/v"+rainbow.Version,
		genesisID,
		gen.Owner,
		gen.Tokens.Staking.Symbol, gen.Tokens.Reward.Symbol,
		instanceDir,
		apiURL,
		metricsURL)
}
