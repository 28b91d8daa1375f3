// internal/commands/search.go
package mneme

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/mwiater/mneme/internal/util"
	"github.com/spf13/cobra"
)

// searchCmd previews raw retrieval without involving the chat model.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Preview which chunks a query retrieves",
	Long: `The 'search' command embeds the query directly and prints the nearest
chunks with their distances. No chat model is involved; this is the raw
retrieval stage, useful for judging what a question would be grounded on.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		chunks, err := rt.engine.RetrieveChunks(cmd.Context(), args[0], 0)
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No chunks retrieved.")
			return nil
		}

		for i, chunk := range chunks {
			page := "N/A"
			if chunk.Record.PageNum != nil {
				page = fmt.Sprintf("%d", *chunk.Record.PageNum)
			}
			color.Yellow("%d. %s (page %s, %s) distance=%.4f",
				i+1, chunk.Record.SourceFile, page, chunk.Record.Modality, chunk.Distance)
			fmt.Fprintln(cmd.OutOrStdout(), "   "+util.TruncateRunes(chunk.Record.TextExcerpt, 160))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
