// internal/commands/documents.go
package mneme

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// documentsCmd lists what has been indexed, grouped by source file.
var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List indexed documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		docs := rt.store.Documents()
		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No documents indexed.")
			return nil
		}

		for _, doc := range docs {
			pages := ""
			if len(doc.Pages) > 0 {
				parts := make([]string, len(doc.Pages))
				for i, p := range doc.Pages {
					parts[i] = fmt.Sprintf("%d", p)
				}
				pages = " pages " + strings.Join(parts, ",")
			}
			color.Green("%s (%s): %d chunks%s", doc.SourceFile, doc.Modality, doc.ChunkCount, pages)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d chunks in total\n", rt.store.Count())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}
