package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/argintel/internal/source"
	"github.com/ppiankov/argintel/internal/store"
)

var (
	importComments     string
	importStakeholders string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load comments and stakeholder profiles into the store",
	Long: `Import reads JSON-lines exports into the local database.

Comments need comment_id and bill_id; stakeholders need user_id.
Re-importing a comment updates its text but keeps its processed mark.

Example:
  argintel import --comments comments.jsonl
  argintel import --stakeholders profiles.jsonl`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importComments, "comments", "", "JSON-lines comment file")
	importCmd.Flags().StringVar(&importStakeholders, "stakeholders", "", "JSON-lines stakeholder file")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importComments == "" && importStakeholders == "" {
		return fmt.Errorf("nothing to import: use --comments and/or --stakeholders")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := context.Background()
	if importComments != "" {
		n, err := importCommentFile(ctx, e.store, importComments)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Imported %d comments from %s\n", n, importComments)
	}
	if importStakeholders != "" {
		n, err := importStakeholderFile(ctx, e.store, importStakeholders)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Imported %d stakeholders from %s\n", n, importStakeholders)
	}
	return nil
}

func importCommentFile(ctx context.Context, st *store.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open comments: %w", err)
	}
	defer func() { _ = f.Close() }()

	comments, err := source.ReadComments(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := st.SaveComments(ctx, comments); err != nil {
		return 0, fmt.Errorf("save comments: %w", err)
	}
	return len(comments), nil
}

func importStakeholderFile(ctx context.Context, st *store.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open stakeholders: %w", err)
	}
	defer func() { _ = f.Close() }()

	stakeholders, err := source.ReadStakeholders(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := st.SaveStakeholders(ctx, stakeholders); err != nil {
		return 0, fmt.Errorf("save stakeholders: %w", err)
	}
	return len(stakeholders), nil
}
