// internal/commands/ingest.go
package mneme

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

// ingestCmd indexes one or more files into the vectorstore.
var ingestCmd = &cobra.Command{
	Use:   "ingest <file> [file...]",
	Short: "Index files into the vectorstore",
	Long: `The 'ingest' command extracts text from the given files (PDF pages,
image captions, audio transcripts), chunks it, embeds every chunk, and
appends the results to the vectorstore. Each file is flushed to disk
before the next one starts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		for _, path := range args {
			result, err := rt.pipeline.IngestFile(cmd.Context(), path)
			if err != nil {
				color.Red("✗ %s: %v", path, err)
				return err
			}
			color.Green("✓ %s: %d chunks (%s)", result.SourceFile, result.ChunkCount, result.Modality)
			if DebugEnabled() {
				pp.Println(result)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d chunks indexed in total\n", rt.store.Count())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
