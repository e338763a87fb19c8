package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	rungroup "github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edgelink-io/edgelink/agent"
	"github.com/edgelink-io/edgelink/agent/admin"
	"github.com/edgelink-io/edgelink/agent/config"
	edgelinkconfig "github.com/edgelink-io/edgelink/pkg/config"
	"github.com/edgelink-io/edgelink/pkg/log"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent [flags]",
		Short: "start the edgelink device agent",
		Long: `Start the EdgeLink device agent.

The agent opens an outbound-only connection to the cloud broker and serves
server-side RPC requests addressed to the device. If the connection drops it
reconnects and restores its subscriptions.

The agent supports both YAML configuration and command line flags. Configure
a YAML file using '--config.path'. When enabling '--config.expand-env',
EdgeLink will expand environment variables in the loaded YAML configuration.

Examples:
  # Connect to the broker at broker.example.com.
  edgelink agent --connect.url wss://broker.example.com:8933 --connect.token my-token

  # Load configuration from a YAML file.
  edgelink agent --config.path ./agent.yaml
`,
	}

	conf := config.Default()

	var configPath string
	cmd.Flags().StringVar(
		&configPath,
		"config.path",
		"",
		`
YAML config file path.`,
	)

	var configExpandEnv bool
	cmd.Flags().BoolVar(
		&configExpandEnv,
		"config.expand-env",
		false,
		`
Whether to expand environment variables in the config file.

This will replaces references to ${VAR} or $VAR with the corresponding
environment variable. The replacement is case-sensitive.

References to undefined variables will be replaced with an empty string. A
default value can be given using form ${VAR:default}.`,
	)

	// Register flags and set default values.
	conf.RegisterFlags(cmd.Flags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			if err := edgelinkconfig.Load(configPath, conf, configExpandEnv); err != nil {
				fmt.Printf("load config: %s\n", err.Error())
				os.Exit(1)
			}
		}

		if err := conf.Validate(); err != nil {
			fmt.Printf("invalid config: %s\n", err.Error())
			os.Exit(1)
		}

		logger, err := log.NewLogger(&conf.Log)
		if err != nil {
			fmt.Printf("failed to setup logger: %s\n", err.Error())
			os.Exit(1)
		}

		if err := run(conf, logger); err != nil {
			logger.Error("failed to run agent", zap.Error(err))
			os.Exit(1)
		}
	}

	return cmd
}

func run(conf *config.Config, logger *log.Logger) error {
	logger.Info("starting edgelink agent", zap.Any("conf", conf))

	registry := prometheus.NewRegistry()

	deviceAgent, err := agent.NewAgent(conf, registry, logger)
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	adminServer := admin.NewServer(
		conf.Admin.BindAddr,
		registry,
		logger,
	)

	var group rungroup.Group

	// Termination handler.
	signalCtx, signalCancel := context.WithCancel(context.Background())
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	group.Add(func() error {
		select {
		case sig := <-signalCh:
			logger.Info(
				"received shutdown signal",
				zap.String("signal", sig.String()),
			)
			return nil
		case <-signalCtx.Done():
			return nil
		}
	}, func(error) {
		signalCancel()
	})

	// Device agent.
	agentCtx, agentCancel := context.WithCancel(context.Background())
	group.Add(func() error {
		if err := deviceAgent.Run(agentCtx); err != nil {
			return fmt.Errorf("agent: %w", err)
		}
		return nil
	}, func(error) {
		agentCancel()
		if err := deviceAgent.Close(); err != nil {
			logger.Warn("failed to close agent", zap.Error(err))
		}
	})

	// Admin server.
	group.Add(func() error {
		if err := adminServer.Serve(); err != nil {
			return fmt.Errorf("admin server serve: %w", err)
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), conf.GracePeriod,
		)
		defer cancel()

		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shut down admin server", zap.Error(err))
		}

		logger.Info("admin server shut down")
	})

	if err := group.Run(); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
