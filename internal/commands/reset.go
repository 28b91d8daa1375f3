// internal/commands/reset.go
package mneme

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetForce bool

// resetCmd clears the whole index. Partial removal is deliberately not
// offered; the index is append-only and rebuilt by re-ingesting.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the vectorstore",
	Long: `The 'reset' command empties the vector index and its metadata and writes
the empty artifacts to disk. Uploaded source files are left in place, so
the index can be rebuilt with 'ingest'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetForce {
			return fmt.Errorf("reset removes all indexed chunks; pass --force to confirm")
		}

		rt, err := newRuntime()
		if err != nil {
			return err
		}
		before := rt.store.Count()
		if err := rt.store.Reset(); err != nil {
			return err
		}
		color.Green("✓ vectorstore cleared (%d chunks removed)", before)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm clearing the vectorstore")
	rootCmd.AddCommand(resetCmd)
}
