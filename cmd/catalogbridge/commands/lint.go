package commands

import (
	"fmt"
	"os"

	"catalogbridge/lib/seccheck"
	"catalogbridge/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Checks the working tree for leaked credentials before pushing.",
	Run: func(cmd *cobra.Command, args []string) {
		findings, err := seccheck.Check(".")
		if err != nil {
			serviceutil.Fatal("credential scan failed", err)
		}

		for _, w := range findings.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		for _, p := range findings.Problems {
			fmt.Fprintf(os.Stderr, "problem: %s\n", p)
		}

		if !findings.Clean() {
			fmt.Fprintln(os.Stderr, "do not push until these problems are resolved")
			os.Exit(1)
		}
		fmt.Println("no credential leaks found")
	},
}
