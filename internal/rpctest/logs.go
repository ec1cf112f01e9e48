package rpctest

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// LogServer answers eth_subscribe("logs") over websocket, pushing a fixed
// list of logs to every subscriber in order.
type LogServer struct {
	*httptest.Server
	rpc *rpc.Server
}

type logService struct {
	logs []interface{}
}

// Logs is served as the "logs" subscription of the eth namespace.
func (s *logService) Logs(ctx context.Context, crit map[string]interface{}) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	go func() {
		for _, l := range s.logs {
			if err := notifier.Notify(sub.ID, l); err != nil {
				return
			}
		}
	}()
	return sub, nil
}

// NewLogServer starts a websocket JSON-RPC server streaming logs. Each log
// is any JSON-marshalable value in eth_getLogs shape.
func NewLogServer(logs []interface{}) (*LogServer, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &logService{logs: logs}); err != nil {
		return nil, err
	}
	return &LogServer{Server: httptest.NewServer(srv.WebsocketHandler([]string{"*"})), rpc: srv}, nil
}

// WSURL is the ws:// address of the server.
func (s *LogServer) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

// Close stops the RPC server and the listener.
func (s *LogServer) Close() {
	s.rpc.Stop()
	s.Server.Close()
}
