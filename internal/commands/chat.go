// internal/commands/chat.go
package mneme

import (
	"fmt"

	"github.com/mwiater/mneme/internal/tui"
	"github.com/spf13/cobra"
)

// chatCmd starts the interactive ask session.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive ask session",
	Long:  `The 'chat' command opens a terminal session for asking grounded questions against the indexed documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		summary := fmt.Sprintf("%d chunks indexed across %d documents. Type a question and press Enter.",
			rt.store.Count(), len(rt.store.Documents()))
		return tui.Run(rt.engine, summary)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
