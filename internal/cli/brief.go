package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/argintel/internal/llm"
	"github.com/ppiankov/argintel/internal/render"
	"github.com/ppiankov/argintel/internal/store"
)

var briefOutput string

// briefCmd represents the brief command
var briefCmd = &cobra.Command{
	Use:   "brief <bill>",
	Short: "Print the latest stored brief of a bill",
	Long: `Brief renders the most recent brief generated for a bill.

Example:
  argintel brief finance-bill-2025
  argintel brief finance-bill-2025 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()
		return printBrief(context.Background(), cmd.OutOrStdout(), e.store, args[0], briefOutput)
	},
}

func init() {
	rootCmd.AddCommand(briefCmd)
	briefCmd.Flags().StringVarP(&briefOutput, "output", "o", "markdown", "output format (markdown, json)")
}

func printBrief(ctx context.Context, w io.Writer, st *store.Store, bill, output string) error {
	b, err := st.LatestBrief(ctx, bill)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no brief for bill %s: run 'argintel process --bill %s' first", bill, bill)
	}
	if err != nil {
		return err
	}

	var r render.Renderer
	switch output {
	case "json":
		r = render.JSONRenderer{}
	case "markdown", "md":
		r = &render.MarkdownRenderer{IncludeFooter: true}
	default:
		return fmt.Errorf("unknown output %q (supported: markdown, json)", output)
	}
	if err := r.Render(w, b); err != nil {
		return fmt.Errorf("render brief: %w", err)
	}
	if output != "json" && b.Narrative != nil && b.Narrative.Enabled {
		_, err = fmt.Fprintf(w, "\n%s", llm.RenderSeparateMarkdown(b.Narrative))
	}
	return err
}
