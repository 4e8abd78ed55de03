// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb stores engine events in sqlite for querying.
package logdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/rainbow"
)

type LogDB struct {
	path          string
	db            *sql.DB
	stmtCache     *stmtCache
	driverVersion string
}

// New creates or opens a log db at the given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&cache=shared")
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem creates a log db in memory.
func NewMem() (*LogDB, error) {
	db, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		return nil, err
	}
	// each connection to :memory: is a database of its own
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, err
	}
	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          ":memory:",
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the version of the sqlite library.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// Record stores events in one sql transaction.
func (db *LogDB) Record(events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	insert, err := db.stmtCache.Prepare("INSERT INTO event(time, name, actor, subject, amount, data) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	stmt := tx.Stmt(insert)
	for _, ev := range events {
		var (
			subject []byte
			amount  []byte
			data    []byte
		)
		if ev.Subject != nil {
			subject = ev.Subject.Bytes()
		}
		if ev.Amount != nil {
			amount = ev.Amount.Bytes()
		}
		if len(ev.Attrs) > 0 {
			if data, err = json.Marshal(ev.Attrs); err != nil {
				tx.Rollback()
				return err
			}
		}
		res, err := stmt.Exec(ev.Time, ev.Name, ev.Actor.Bytes(), subject, amount, string(data))
		if err != nil {
			tx.Rollback()
			return errors.Wrap(err, "insert event")
		}
		if seq, err := res.LastInsertId(); err == nil {
			ev.Seq = uint64(seq)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	metricRecordedEvents().Add(int64(len(events)))
	return nil
}

// FilterEvents returns the events matching filter. A nil filter matches everything.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, time, name, actor, subject, amount, data FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT seq, time, name, actor, subject, amount, data FROM event WHERE 1"
	if filter.After > 0 {
		args = append(args, filter.After)
		stmt += " AND seq > ?"
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ?"
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " AND name = ?"
		}
		if criteria.Actor != nil {
			args = append(args, criteria.Actor.Bytes())
			stmt += " AND actor = ?"
		}
		if criteria.Subject != nil {
			args = append(args, criteria.Subject.Bytes())
			stmt += " AND subject = ?"
		}
		stmt += " )"
	}
	if len(filter.CriteriaSet) > 0 {
		stmt += " )"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

// LastSeq returns the sequence number of the latest event, 0 if there is none.
func (db *LogDB) LastSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	return uint64(seq.Int64), nil
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     uint64
			time    uint64
			name    string
			actor   []byte
			subject []byte
			amount  []byte
			data    sql.NullString
		)
		if err := rows.Scan(&seq, &time, &name, &actor, &subject, &amount, &data); err != nil {
			return nil, err
		}
		ev := &Event{
			Seq:   seq,
			Time:  time,
			Name:  name,
			Actor: rainbow.BytesToAddress(actor),
		}
		if len(subject) > 0 {
			addr := rainbow.BytesToAddress(subject)
			ev.Subject = &addr
		}
		if amount != nil {
			ev.Amount = new(big.Int).SetBytes(amount)
		}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &ev.Attrs); err != nil {
				return nil, errors.Wrap(err, "decode event data")
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
