package chat

// Message is one turn of the coaching conversation. Messages are never stored.
type Message struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content" validate:"min=1,max=4000"`
}

// ResumeContext is optional background the client sends with a conversation.
type ResumeContext struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Score       *float64 `json:"score" validate:"omitempty,integer,min=0,max=100"`
	Suggestions []string `json:"suggestions" validate:"max=10,dive,min=1,max=500"`
	Weaknesses  []string `json:"weaknesses" validate:"max=10,dive,min=1,max=500"`
	ResumeText  string   `json:"resumeText" validate:"max=8000"`
}

// Reply is the assistant's answer.
type Reply struct {
	Reply string `json:"reply"`
}
