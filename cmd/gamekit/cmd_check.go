package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/additive-ml/gamekit/internal/config"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config.yaml>",
		Short: "Validate a model config file against its schema",
		Long: `Validate a model config file against its schema.

Checks the YAML structure, the task type, model kinds, and storage
levels without building the model or touching any dataset. Exits
non-zero when the config has violations.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runCheck,
		SilenceErrors: true,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	violations := config.ValidateBytes(data)
	if len(violations) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s has %d violation(s):\n", args[0], len(violations))
	for _, v := range violations {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v)
	}
	return &CheckFailureError{Message: fmt.Sprintf("%s failed validation", args[0])}
}
