package handler

import (
	"net/http"

	"github.com/web3-frozen/chain-watchdog/internal/push"
)

// Subscribe upgrades the connection into the push hub.
func Subscribe(hub *push.Hub) http.HandlerFunc {
	return hub.ServeWS
}
