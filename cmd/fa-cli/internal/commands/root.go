package commands

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "fa-cli",
		Short:        "Foreclosure-assist operations CLI",
		SilenceUsage: true,
		Long: `fa-cli runs the pure scoring and valuation functions locally and performs
one-off operations against the configured environment (CONFIG_ENV / CONFIG_DIR):
applying migrations, running the follow-up job, creating admin users and
building property reports.`,
	}

	root.AddCommand(
		newScoreCommand(),
		newEstimateCommand(),
		newFollowupCommand(),
		newMigrateCommand(),
		newUserCommand(),
		newPropertyCommand(),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
