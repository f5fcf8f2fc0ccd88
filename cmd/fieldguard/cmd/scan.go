package cmd

import (
	"fmt"

	"github.com/grzegorzmaniak/fieldguard/security"
	"github.com/spf13/cobra"
)

var scanAll bool

var scanCmd = &cobra.Command{
	Use:   "scan VALUE...",
	Short: "Runs the security scanner over values",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "List every matching pattern instead of the first")
}

func runScan(cmd *cobra.Command, args []string) error {
	_, rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	scanner := rt.Engine.Scanner()
	out := cmd.OutOrStdout()
	failed := false

	for _, value := range args {
		var matches []security.Pattern
		if scanAll {
			matches = scanner.ScanAll(value)
		} else if res := scanner.Scan(value); !res.Secure {
			matches = []security.Pattern{*res.Match}
		}

		if len(matches) == 0 {
			fmt.Fprintf(out, "secure\t%q\n", value)
			continue
		}
		failed = true
		for _, p := range matches {
			fmt.Fprintf(out, "%s\t%q\t%s\t%s\n", p.ThreatLevel, value, p.Name, p.Description)
		}
	}

	if failed {
		return errRejected
	}
	return nil
}
