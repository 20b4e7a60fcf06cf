package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suiscode/ai-resume/internal/extract"
)

var extractFile string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the normalized text of a PDF resume",
	Long:  "Extract reads a PDF locally with the same parser the API uses and prints the normalized text.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if extractFile == "" {
			return errors.New("--file is required")
		}
		data, err := os.ReadFile(extractFile)
		if err != nil {
			return fmt.Errorf("read pdf: %w", err)
		}
		if len(data) > extract.MaxFileBytes {
			return fmt.Errorf("pdf is larger than %d bytes", extract.MaxFileBytes)
		}
		doc, err := extract.New().Extract(cmd.Context(), data)
		if errors.Is(err, extract.ErrTooLittleText) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: only %d characters of text found\n", len([]rune(doc.Text)))
		} else if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "pages: %d\n", doc.Pages)
		fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Path to a PDF resume")
	rootCmd.AddCommand(extractCmd)
}
