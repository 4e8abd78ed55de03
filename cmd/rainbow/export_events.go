// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rainbowlabs/rainbow/api/events"
	"github.com/rainbowlabs/rainbow/logdb"
)

const exportBatchSize = 1000

func exportEventsAction(ctx *cli.Context) error {
	initLogger(ctx)
	exitSignal := handleExitSignal()

	gen := selectGenesis(ctx)
	genesisID, err := gen.ID()
	if err != nil {
		return err
	}
	instanceDir := makeInstanceDir(ctx, genesisID)
	dir := filepath.Join(instanceDir, "logs.db")
	if _, err := os.Stat(dir); err != nil {
		return errors.Wrap(err, "event log not found")
	}
	logDB := openLogDB(instanceDir)
	defer logDB.Close()

	var out io.Writer = os.Stdout
	if path := ctx.String(outFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create export file")
		}
		defer f.Close()
		out = f
	}

	n, err := exportEvents(exitSignal, logDB, out, ctx.Bool(compressFlag.Name), ctx.String(outFlag.Name) != "")
	if err != nil {
		return err
	}
	logger.Info("events exported", "count", n)
	return nil
}

// exportEvents writes every event of db as a line of JSON, in sequence order.
func exportEvents(ctx context.Context, db *logdb.LogDB, out io.Writer, compress bool, progress bool) (uint64, error) {
	last, err := db.LastSeq(ctx)
	if err != nil {
		return 0, err
	}

	var bar *pb.ProgressBar
	if progress && last > 0 {
		fmt.Fprintln(os.Stderr, ">> Exporting events <<")
		bar = pb.New64(int64(last)).SetMaxWidth(90)
		bar.Output = os.Stderr
		bar.Start()
		defer func() { bar.NotPrint = true }()
	}

	var (
		sink    = bufio.NewWriter(out)
		flushFn = sink.Flush
		w       io.Writer
	)
	if compress {
		sw := snappy.NewBufferedWriter(sink)
		w = sw
		flushFn = func() error {
			if err := sw.Close(); err != nil {
				return err
			}
			return sink.Flush()
		}
	} else {
		w = sink
	}
	enc := json.NewEncoder(w)

	var after, count uint64
	for {
		evs, err := db.FilterEvents(ctx, &logdb.EventFilter{
			After:   after,
			Options: &logdb.Options{Limit: exportBatchSize},
			Order:   logdb.ASC,
		})
		if err != nil {
			return count, err
		}
		for _, ev := range evs {
			if err := enc.Encode(events.ConvertEvent(ev)); err != nil {
				return count, errors.Wrap(err, "write event")
			}
			after = ev.Seq
			count++
		}
		if bar != nil {
			bar.Set64(int64(after))
		}
		if len(evs) < exportBatchSize {
			break
		}
	}
	if err := flushFn(); err != nil {
		return count, errors.Wrap(err, "flush export")
	}
	if bar != nil {
		bar.Finish()
	}
	return count, nil
}
