// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rainbowlabs/rainbow/api/restutil"
)

type Node struct {
	info  Info
	clock func() uint64
}

// New serves static node info; clock is the engine clock.
func New(info Info, clock func() uint64) *Node {
	return &Node{
		info,
		clock,
	}
}

func (n *Node) handleNodeInfo(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, &n.info)
}

func (n *Node) handleClock(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, &Clock{n.clock()})
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/info").
		Methods(http.MethodGet).
		Name("GET /node/info").
		HandlerFunc(restutil.WrapHandlerFunc(n.handleNodeInfo))
	sub.Path("/clock").
		Methods(http.MethodGet).
		Name("GET /node/clock").
		HandlerFunc(restutil.WrapHandlerFunc(n.handleClock))
}
