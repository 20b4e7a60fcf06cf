package analysis

import "encoding/json"

// Result is the structured feedback returned by the analyzer.
type Result struct {
	OverallScore int      `json:"overallScore"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Suggestions  []string `json:"suggestions"`
	KeywordGaps  []string `json:"keywordGaps"`
}

// Outcome is a validated Result together with the provider JSON it came from.
type Outcome struct {
	Result Result
	Raw    json.RawMessage
}

// Input is a normalized analyze request.
type Input struct {
	ResumeText string
	JobTarget  string
	RequestID  string
}
