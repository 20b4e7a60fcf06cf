package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiscode/ai-resume/internal/apiclient"
)

type fakeAnalyzer struct {
	extracted string
	gotFile   string
	gotReq    apiclient.AnalyzeRequest
}

func (f *fakeAnalyzer) Extract(ctx context.Context, fileName string, pdf []byte) (string, error) {
	f.gotFile = fileName
	return f.extracted, nil
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req apiclient.AnalyzeRequest) (apiclient.AnalyzeResponse, error) {
	f.gotReq = req
	return apiclient.AnalyzeResponse{OverallScore: 64}, nil
}

func resetAnalyzeFlags(t *testing.T) {
	t.Cleanup(func() {
		analyzeFile, analyzeTextFile, analyzeJobTarget, analyzeTitle = "", "", "", ""
	})
}

func TestRunAnalyzeTextFile(t *testing.T) {
	resetAnalyzeFlags(t)
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Go engineer  \n"), 0o600))
	analyzeTextFile = path
	analyzeJobTarget = "Backend"
	analyzeTitle = "Draft"

	fake := &fakeAnalyzer{}
	out, err := runAnalyze(context.Background(), fake)
	require.NoError(t, err)
	assert.Equal(t, 64, out.OverallScore)
	assert.Equal(t, "Go engineer", fake.gotReq.NormalizedResumeText)
	assert.Equal(t, "Backend", fake.gotReq.JobTarget)
	assert.Equal(t, "text", fake.gotReq.Source)
	assert.Equal(t, "Draft", fake.gotReq.Title)
}

func TestRunAnalyzePDFExtractsFirst(t *testing.T) {
	resetAnalyzeFlags(t)
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	analyzeFile = path

	fake := &fakeAnalyzer{extracted: "extracted text"}
	_, err := runAnalyze(context.Background(), fake)
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", fake.gotFile)
	assert.Equal(t, "extracted text", fake.gotReq.NormalizedResumeText)
	assert.Empty(t, fake.gotReq.Source)
}

func TestRunAnalyzeRequiresInput(t *testing.T) {
	resetAnalyzeFlags(t)
	_, err := runAnalyze(context.Background(), &fakeAnalyzer{})
	assert.Error(t, err)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", " ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty())
}
