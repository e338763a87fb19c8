package cli

import (
	"github.com/spf13/cobra"

	"github.com/edgelink-io/edgelink/cli/agent"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "edgelink [command] (flags)",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Long: `EdgeLink is a device client for cloud telemetry platforms.

The client opens an outbound-only connection to the cloud broker and serves
server-side RPC requests addressed to the device, such as requests to read a
sensor value or change a device setting.

Start the device agent with:

  $ edgelink agent --connect.url wss://broker.example.com:8933
`,
	}

	cmd.AddCommand(agent.NewCommand())

	return cmd
}

func init() {
	cobra.EnableCommandSorting = false
}
