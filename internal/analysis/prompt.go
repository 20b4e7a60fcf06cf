package analysis

import "strings"

const systemInstruction = "You are a strict ATS-style resume analyzer. Evaluate resumes with evidence-based scoring only. Do not invent facts. Output JSON only and follow the provided schema exactly."

func buildPrompt(resumeText, jobTarget string) string {
	target := "Job target: Not provided"
	if jobTarget != "" {
		target = "Job target: " + jobTarget
	}
	return strings.Join([]string{
		"Analyze the resume and return objective, concise feedback.",
		target,
		"Resume text:",
		resumeText,
	}, "\n\n")
}
