// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rainbowlabs/rainbow/api"
	"github.com/rainbowlabs/rainbow/api/node"
	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/co"
	"github.com/rainbowlabs/rainbow/eventlog"
	"github.com/rainbowlabs/rainbow/health"
	"github.com/rainbowlabs/rainbow/log"
	"github.com/rainbowlabs/rainbow/logdb"
	"github.com/rainbowlabs/rainbow/lvldb"
	"github.com/rainbowlabs/rainbow/metrics"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	if version == "" {
		version = rainbow.Version
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Rainbow",
		Usage:     "Staking and governance engine",
		Copyright: "2025 The Rainbow developers",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			persistFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			pprofFlag,
			skipLogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			disableClockCheckFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "export-events",
				Usage: "export the event log as JSON lines",
				Flags: []cli.Flag{
					genesisFlag,
					dataDirFlag,
					verbosityFlag,
					jsonLogsFlag,
					outFlag,
					compressFlag,
				},
				Action: exportEventsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gen := selectGenesis(ctx)
	dumpGenesis(gen)
	genesisID, err := gen.ID()
	if err != nil {
		return err
	}

	var (
		mainDB      *lvldb.LevelDB
		logDB       *logdb.LogDB
		instanceDir string
	)
	if ctx.BoolT(persistFlag.Name) {
		instanceDir = makeInstanceDir(ctx, genesisID)
		mainDB = openMainDB(ctx, instanceDir)
		logDB = openLogDB(instanceDir)
	} else {
		instanceDir = "Memory"
		mainDB = lvldb.NewMem()
		logDB = openMemLogDB()
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	var (
		newEvent co.Signal
		h        = health.New()
		writer   = eventlog.New(logDB, &newEvent, h)
	)
	var observers []staker.Observer
	if !ctx.Bool(skipLogsFlag.Name) {
		observers = append(observers, writer)
	}
	e := newEngine(mainDB, gen, observers...)
	writer.Track(e.staker)

	if err := initGenesis(mainDB, e, gen, genesisID); err != nil {
		return err
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	handler, closeSubs := api.New(e.staker, e.exec, e.tokens(), logDB, &newEvent, h, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		SkipLogs:             ctx.Bool(skipLogsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		LogLevel:             logLevel,
		Info: node.Info{
			Version:      fullVersion(),
			GenesisID:    genesisID,
			Engine:       e.staker.Address(),
			StakingToken: gen.Tokens.Staking.Symbol,
			RewardToken:  gen.Tokens.Reward.Symbol,
			StartedAt:    uint64(time.Now().Unix()),
		},
		Clock: func() uint64 { return uint64(time.Now().Unix()) },
	})
	defer closeSubs()

	apiSrv, apiListener, err := startAPIServer(ctx, handler, genesisID)
	if err != nil {
		return err
	}
	apiURL := "http://" + apiListener.Addr().String() + "/"

	metricsURL := "disabled"
	group, groupCtx := errgroup.WithContext(exitSignal)
	if ctx.Bool(enableMetricsFlag.Name) {
		metricsSrv, metricsListener, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			apiListener.Close()
			return err
		}
		metricsURL = "http://" + metricsListener.Addr().String() + "/metrics"
		group.Go(func() error { return serve(groupCtx, metricsSrv, metricsListener) })
	}

	printStartupMessage(gen, genesisID, instanceDir, apiURL, metricsURL)

	group.Go(func() error { return serve(groupCtx, apiSrv, apiListener) })
	group.Go(func() error {
		writer.Run(groupCtx)
		return nil
	})
	if !ctx.Bool(disableClockCheckFlag.Name) {
		group.Go(func() error {
			houseKeeping(groupCtx)
			return nil
		})
	}
	return group.Wait()
}

func houseKeeping(ctx context.Context) {
	logger.Debug("enter house keeping")
	defer logger.Debug("leave house keeping")

	checkClockOffset()
	clockSyncTicker := time.NewTicker(10 * time.Minute)
	defer clockSyncTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-clockSyncTicker.C:
			checkClockOffset()
		}
	}
}
