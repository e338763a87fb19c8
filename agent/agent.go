// Package agent implements the EdgeLink device agent, a long-running
// process that connects to the cloud broker and serves server-side RPC
// requests addressed to the device.
package agent

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edgelink-io/edgelink/agent/config"
	"github.com/edgelink-io/edgelink/client"
	"github.com/edgelink-io/edgelink/pkg/jsondoc"
	"github.com/edgelink-io/edgelink/pkg/log"
	"github.com/edgelink-io/edgelink/pkg/rpc"
)

// Agent connects the device to the broker and dispatches inbound RPC
// requests.
type Agent struct {
	client *client.Client

	rpc *rpc.ServerRPC

	startTime time.Time

	logger *log.Logger
}

func NewAgent(
	conf *config.Config,
	registry *prometheus.Registry,
	logger *log.Logger,
) (*Agent, error) {
	tlsConfig, err := conf.Connect.TLS.Load()
	if err != nil {
		return nil, err
	}

	c := client.New(
		client.WithURL(conf.Connect.URL),
		client.WithToken(conf.Connect.Token),
		client.WithTLSConfig(tlsConfig),
		client.WithLogger(logger),
	)

	agent := &Agent{
		client:    c,
		startTime: time.Now(),
		logger:    logger.WithSubsystem("agent"),
	}

	server := rpc.New(rpc.Capabilities{
		Subscribe:   c.Subscribe,
		Unsubscribe: c.Unsubscribe,
		PublishJSON: func(topic string, payload []byte, _ int) bool {
			return c.Publish(topic, payload)
		},
	}, logger)
	if registry != nil {
		server.Metrics().Register(registry)
	}
	c.Register(server)
	agent.rpc = server

	agent.registerBuiltins()

	return agent, nil
}

// RPC returns the server-side RPC API, such as to subscribe additional
// callbacks before the agent runs.
func (a *Agent) RPC() *rpc.ServerRPC {
	return a.rpc
}

// Run connects to the broker and processes messages until the context is
// cancelled.
func (a *Agent) Run(ctx context.Context) error {
	return a.client.Run(ctx)
}

// Close closes the broker connection.
func (a *Agent) Close() error {
	return a.client.Close()
}

// registerBuiltins subscribes the agent's built-in RPC methods.
func (a *Agent) registerBuiltins() {
	a.rpc.Subscribe(
		rpc.Callback{
			Method:         "getUptime",
			Handler:        a.getUptime,
			ResponseFields: 1,
		},
		rpc.Callback{
			Method:         "getSessionInfo",
			Handler:        a.getSessionInfo,
			ResponseFields: 2,
		},
	)
}

func (a *Agent) getUptime(_ interface{}, resp *jsondoc.Document) {
	resp.Set("uptime", time.Since(a.startTime).Seconds())
}

func (a *Agent) getSessionInfo(_ interface{}, resp *jsondoc.Document) {
	resp.Set("sessionId", a.client.SessionID())
	resp.Set("connected", a.client.Connected())
}
