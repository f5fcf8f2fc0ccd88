package cmd

import (
	"errors"
	"fmt"

	"github.com/grzegorzmaniak/fieldguard/validation"
	"github.com/spf13/cobra"
)

var (
	validateField        string
	validateSecurityOnly bool
	validateMultiple     bool
)

// errRejected makes the process exit non-zero when any value fails.
var errRejected = errors.New("one or more values were rejected")

var validateCmd = &cobra.Command{
	Use:   "validate VALUE...",
	Short: "Validates values for one field type",
	Long: `Validates each VALUE against the rule of --field and prints one line per value.

Examples:
  fieldguard validate --field userName alice "bad name"
  fieldguard validate --field email --multiple "a@b.co, c@d.io"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateField, "field", "f", "", "Field type, for example userName")
	validateCmd.Flags().BoolVar(&validateSecurityOnly, "security-only", false, "Only run the security scanner")
	validateCmd.Flags().BoolVar(&validateMultiple, "multiple", false, "Treat each VALUE as a comma-separated list")
	_ = validateCmd.MarkFlagRequired("field")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	failed := false
	for _, value := range args {
		var resp validation.Response
		if validateMultiple {
			resp = rt.Engine.ValidateMultiple(ctx, value, validateField)
		} else {
			resp = rt.Engine.Validate(ctx, validation.Request{
				Value:        value,
				FieldType:    validateField,
				SecurityOnly: validateSecurityOnly,
			})
		}

		if resp.IsValid {
			fmt.Fprintf(out, "ok\t%q\n", value)
			continue
		}
		failed = true
		fmt.Fprintf(out, "%s\t%q\t%s\n", resp.Kind, value, resp.Error)
	}

	if failed {
		return errRejected
	}
	return nil
}
