package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suiscode/ai-resume/internal/apiclient"
)

var (
	analyzeFile      string
	analyzeTextFile  string
	analyzeJobTarget string
	analyzeTitle     string
	analyzeAPIURL    string
	analyzeToken     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Submit a resume to a running API for review",
	Long:  "Analyze sends a PDF (through /api/extract) or a text file to /api/analyze and prints the JSON result. 5xx responses are retried.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := apiclient.New(firstNonEmpty(analyzeAPIURL, os.Getenv("RESUME_API_URL"), "http://localhost:8080"),
			firstNonEmpty(analyzeToken, os.Getenv("RESUME_API_TOKEN")))
		out, err := runAnalyze(cmd.Context(), client)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Path to a PDF resume")
	analyzeCmd.Flags().StringVar(&analyzeTextFile, "text-file", "", "Path to a plain-text resume")
	analyzeCmd.Flags().StringVar(&analyzeJobTarget, "job-target", "", "Role or job description to score against")
	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "", "Save the result under this title (requires --token)")
	analyzeCmd.Flags().StringVar(&analyzeAPIURL, "api", "", "API base URL (default RESUME_API_URL or http://localhost:8080)")
	analyzeCmd.Flags().StringVar(&analyzeToken, "token", "", "Bearer token (default RESUME_API_TOKEN)")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "text-file")
	rootCmd.AddCommand(analyzeCmd)
}

type analyzer interface {
	Extract(ctx context.Context, fileName string, pdf []byte) (string, error)
	Analyze(ctx context.Context, req apiclient.AnalyzeRequest) (apiclient.AnalyzeResponse, error)
}

func runAnalyze(ctx context.Context, client analyzer) (apiclient.AnalyzeResponse, error) {
	var (
		text   string
		source string
	)
	switch {
	case analyzeFile != "":
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return apiclient.AnalyzeResponse{}, fmt.Errorf("read pdf: %w", err)
		}
		text, err = client.Extract(ctx, filepath.Base(analyzeFile), data)
		if err != nil {
			return apiclient.AnalyzeResponse{}, fmt.Errorf("extract: %w", err)
		}
		source = "pdf"
	case analyzeTextFile != "":
		data, err := os.ReadFile(analyzeTextFile)
		if err != nil {
			return apiclient.AnalyzeResponse{}, fmt.Errorf("read text: %w", err)
		}
		text = strings.TrimSpace(string(data))
		source = "text"
	default:
		return apiclient.AnalyzeResponse{}, errors.New("one of --file or --text-file is required")
	}

	req := apiclient.AnalyzeRequest{
		NormalizedResumeText: text,
		JobTarget:            strings.TrimSpace(analyzeJobTarget),
	}
	if title := strings.TrimSpace(analyzeTitle); title != "" {
		req.Title = title
		req.Source = source
	}
	return client.Analyze(ctx, req)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
