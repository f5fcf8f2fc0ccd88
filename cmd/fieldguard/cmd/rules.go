package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rulesFormat string

var rulesCmd = &cobra.Command{
	Use:   "rules [FIELD_TYPE...]",
	Short: "Prints the rule resolved for each field type",
	Long: `Prints the rule resolved for each FIELD_TYPE, or for every known field type
when none are given. Well-known fields reflect the configured settings source.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVarP(&rulesFormat, "output", "o", "table", "Output format: table or yaml")
}

type ruleView struct {
	FieldType     string            `yaml:"fieldType"`
	Source        string            `yaml:"source"`
	Pattern       string            `yaml:"pattern,omitempty"`
	MinLength     int               `yaml:"minLength,omitempty"`
	MaxLength     int               `yaml:"maxLength,omitempty"`
	Required      bool              `yaml:"required"`
	RequireLetter bool              `yaml:"requireLetter,omitempty"`
	RequireNumber bool              `yaml:"requireNumber,omitempty"`
	Fallback      bool              `yaml:"fallback,omitempty"`
	Messages      map[string]string `yaml:"messages,omitempty"`
}

func runRules(cmd *cobra.Command, args []string) error {
	if rulesFormat != "table" && rulesFormat != "yaml" {
		return fmt.Errorf("unknown output format %q", rulesFormat)
	}

	ctx := cmd.Context()
	_, rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	fieldTypes := args
	if len(fieldTypes) == 0 {
		fieldTypes = rt.Engine.Store().FieldTypes()
	}

	views := make([]ruleView, 0, len(fieldTypes))
	for _, fieldType := range fieldTypes {
		rule, err := rt.Engine.Rule(ctx, fieldType)
		if err != nil {
			return fmt.Errorf("%s: %w", fieldType, err)
		}

		view := ruleView{
			FieldType:     rule.FieldType,
			Source:        string(rule.Source),
			Pattern:       rule.Expression(),
			MinLength:     rule.MinLength,
			MaxLength:     rule.MaxLength,
			Required:      rule.Required,
			RequireLetter: rule.RequireLetter,
			RequireNumber: rule.RequireNumber,
			Fallback:      rule.Fallback,
			Messages:      make(map[string]string, len(rule.Messages)),
		}
		for k, v := range rule.Messages {
			view.Messages[string(k)] = v
		}
		views = append(views, view)
	}

	out := cmd.OutOrStdout()
	if rulesFormat == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD TYPE\tSOURCE\tMIN\tMAX\tREQUIRED\tPATTERN")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\t%s\n", v.FieldType, v.Source, v.MinLength, v.MaxLength, v.Required, v.Pattern)
	}
	return w.Flush()
}
