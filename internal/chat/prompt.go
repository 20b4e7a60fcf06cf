package chat

import (
	"strconv"
	"strings"
)

func buildPrompt(messages []Message, rc *ResumeContext) string {
	parts := []string{
		"You are an expert resume coach.",
		"Give practical, specific, concise guidance.",
		"Prefer rewrite-ready suggestions and measurable outcomes.",
		"If asked to rewrite content, provide improved examples.",
		contextBlock(rc),
		"Conversation transcript:",
		transcript(messages),
		"Now provide your next assistant reply only.",
	}
	return strings.Join(parts, "\n\n")
}

func contextBlock(rc *ResumeContext) string {
	if rc == nil {
		return "Resume context: none provided."
	}
	var lines []string
	if rc.Title != nil && *rc.Title != "" {
		lines = append(lines, "Resume title: "+*rc.Title)
	}
	if rc.Score != nil {
		lines = append(lines, "Latest score: "+strconv.Itoa(int(*rc.Score))+"/100")
	}
	if len(rc.Weaknesses) > 0 {
		lines = append(lines, "Known weaknesses:\n"+bullets(rc.Weaknesses))
	}
	if len(rc.Suggestions) > 0 {
		lines = append(lines, "Known suggestions:\n"+bullets(rc.Suggestions))
	}
	if rc.ResumeText != "" {
		lines = append(lines, "Resume text excerpt:\n"+rc.ResumeText)
	}
	if len(lines) == 0 {
		return "Resume context: none provided."
	}
	return "Resume context:\n" + strings.Join(lines, "\n\n")
}

func bullets(items []string) string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = "- " + item
	}
	return strings.Join(out, "\n")
}

func transcript(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		speaker := "User"
		if m.Role == "assistant" {
			speaker = "Assistant"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
