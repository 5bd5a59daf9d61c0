package cli

import (
	"fmt"

	"resumeparser/internal/types"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of parsed resumes",
	Long: `Print the JSON schema that every model answer is validated against.
This is the same schema sent to the model as the tool input definition.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(types.ResponseSchema()))
		return err
	},
}
