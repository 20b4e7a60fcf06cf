// Command resumectl serves, migrates and exercises the resume review API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "resumectl",
	Short:         "AI resume review backend tooling",
	Long:          "resumectl runs the resume review API, applies database migrations, extracts PDF text locally and submits resumes for analysis.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
