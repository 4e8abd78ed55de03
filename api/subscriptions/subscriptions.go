// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/rainbowlabs/rainbow/api/restutil"
	"github.com/rainbowlabs/rainbow/co"
	"github.com/rainbowlabs/rainbow/log"
	"github.com/rainbowlabs/rainbow/logdb"
	"github.com/rainbowlabs/rainbow/rainbow"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	readBatch = 256
)

type Subscriptions struct {
	db       *logdb.LogDB
	newEvent *co.Signal
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

type msgReader interface {
	Read(ctx context.Context) ([]any, bool, error)
}

// New creates the subscriptions API. newEvent is broadcast whenever events are recorded.
func New(db *logdb.LogDB, newEvent *co.Signal, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		db:       db,
		newEvent: newEvent,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func parseCriteria(req *http.Request) (*logdb.EventCriteria, error) {
	query := req.URL.Query()
	var (
		criteria logdb.EventCriteria
		set      bool
	)
	if name := query.Get("name"); name != "" {
		criteria.Name = name
		set = true
	}
	for key, dst := range map[string]**rainbow.Address{"actor": &criteria.Actor, "subject": &criteria.Subject} {
		s := query.Get(key)
		if s == "" {
			continue
		}
		addr, err := rainbow.ParseAddress(s)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, key))
		}
		*dst = &addr
		set = true
	}
	if !set {
		return nil, nil
	}
	return &criteria, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	var after uint64
	if pos := req.URL.Query().Get("pos"); pos != "" {
		var err error
		if after, err = strconv.ParseUint(pos, 10, 64); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "pos"))
		}
	} else {
		// by default only events recorded from now on
		last, err := s.db.LastSeq(req.Context())
		if err != nil {
			return err
		}
		after = last
	}
	criteria, err := parseCriteria(req)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	reader := newEventReader(s.db, after, criteria, readBatch)
	if err := s.pipe(conn, reader); err != nil {
		logger.Debug("error in websocket pipe", "err", err)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()), time.Now().Add(writeWait))
	}
	return conn.Close()
}

func (s *Subscriptions) pipe(conn *websocket.Conn, reader msgReader) error {
	closed := make(chan struct{})
	// start read loop to handle close event and pong messages
	go func() {
		defer close(closed)

		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("websocket read error", "err", err)
				}
				return
			}
		}
	}()

	var goes co.Goes
	defer goes.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	goes.Go(func() {
		select {
		case <-closed:
		case <-s.done:
		case <-ctx.Done():
		}
		cancel()
	})

	waiter := s.newEvent.NewWaiter()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		msgs, hasMore, err := reader.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, msg := range msgs {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}
		if hasMore {
			continue
		}
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-waiter.C():
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// Close ends all subscriptions and waits for them to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvents))
}
