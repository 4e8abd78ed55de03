// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/rainbowlabs/rainbow/api/admin"
	"github.com/rainbowlabs/rainbow/api/doc"
	"github.com/rainbowlabs/rainbow/api/events"
	"github.com/rainbowlabs/rainbow/api/governance"
	"github.com/rainbowlabs/rainbow/api/middleware"
	"github.com/rainbowlabs/rainbow/api/node"
	"github.com/rainbowlabs/rainbow/api/staking"
	"github.com/rainbowlabs/rainbow/api/subscriptions"
	"github.com/rainbowlabs/rainbow/api/tokens"
	"github.com/rainbowlabs/rainbow/builtin/staker"
	"github.com/rainbowlabs/rainbow/builtin/token"
	"github.com/rainbowlabs/rainbow/co"
	"github.com/rainbowlabs/rainbow/health"
	"github.com/rainbowlabs/rainbow/log"
	"github.com/rainbowlabs/rainbow/logdb"
	"github.com/rainbowlabs/rainbow/metrics"
	"github.com/rainbowlabs/rainbow/state"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	LogsLimit            uint64
	SkipLogs             bool
	PprofOn              bool
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	LogLevel             *slog.LevelVar
	Info                 node.Info
	Clock                func() uint64
}

// New return api router
func New(
	s *staker.Staker,
	exec *state.Executor,
	tokenSet map[string]*token.Token,
	logDB *logdb.LogDB,
	newEvent *co.Signal,
	h *health.Health,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EnableReqLogger == nil {
		opts.EnableReqLogger = &atomic.Bool{}
	}

	router := mux.NewRouter()

	router.Path("/doc/rainbow.yaml").HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			http.ServeFileFS(w, req, doc.FS, "rainbow.yaml")
		})
	router.Path("/").HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "doc/rainbow.yaml", http.StatusTemporaryRedirect)
		})

	staking.New(s).
		Mount(router, "/staking")
	governance.New(s).
		Mount(router, "/governance")
	admin.New(s, exec, opts.LogLevel, opts.EnableReqLogger, h).
		Mount(router, "/admin")
	tokens.New(tokenSet, s.Address()).
		Mount(router, "/tokens")
	node.New(opts.Info, opts.Clock).
		Mount(router, "/node")

	if !opts.SkipLogs {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}
	subs := subscriptions.New(logDB, newEvent, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", "x-genesis-id", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{"x-genesis-id", middleware.RequestIDHeader}),
	)(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
