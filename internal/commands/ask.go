// internal/commands/ask.go
package mneme

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

// askCmd answers one question grounded in the indexed documents.
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question grounded in the indexed documents",
	Long: `The 'ask' command runs the two-stage retrieval protocol: the chat model
first proposes what to look up, the closest chunks are retrieved, and the
model then answers strictly from that retrieved context. The answer is
printed with the source files and pages it was grounded on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		answer, err := rt.engine.Answer(cmd.Context(), question, 0)
		if err != nil {
			return err
		}
		if DebugEnabled() {
			pp.Println(answer)
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer.Answer)
		if len(answer.Citations) > 0 {
			color.Cyan("\nSources:")
			for _, citation := range answer.Citations {
				page := "N/A"
				if citation.PageNum != nil {
					page = fmt.Sprintf("%d", *citation.PageNum)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (page %s)\n", citation.SourceFile, page)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
