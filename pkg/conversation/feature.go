package conversation

import (
	"github.com/pkg/errors"
)

// FeatureMode selects which of a session's logs is shown and which backend
// behavior a sent message triggers.
type FeatureMode string

const (
	FeatureChat               FeatureMode = "chat"
	FeatureQuestionGeneration FeatureMode = "question_generation"
	FeatureQuizGeneration     FeatureMode = "quiz_generation"
	FeatureGeneralAI          FeatureMode = "general_ai"
	FeatureSystemHealth       FeatureMode = "system_health"
)

// Features lists the modes in the order the interface cycles through them.
var Features = []FeatureMode{
	FeatureChat,
	FeatureGeneralAI,
	FeatureQuestionGeneration,
	FeatureQuizGeneration,
	FeatureSystemHealth,
}

func ParseFeatureMode(s string) (FeatureMode, error) {
	for _, f := range Features {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown feature mode %q", s)
}

// Next returns the mode after f, wrapping around.
func (f FeatureMode) Next() FeatureMode {
	for i, g := range Features {
		if g == f {
			return Features[(i+1)%len(Features)]
		}
	}
	return FeatureChat
}

// QueryValue is the feature_type query parameter for loading a log. Chat is
// the backend default and is sent as no parameter at all.
func (f FeatureMode) QueryValue() string {
	if f == FeatureChat {
		return ""
	}
	return string(f)
}

func (f FeatureMode) Title() string {
	switch f {
	case FeatureChat:
		return "Docs Chat"
	case FeatureQuestionGeneration:
		return "Question Generator"
	case FeatureQuizGeneration:
		return "Quiz Generator"
	case FeatureGeneralAI:
		return "General AI Assistant"
	case FeatureSystemHealth:
		return "System Health Monitor"
	default:
		return "Chat"
	}
}

func (f FeatureMode) Placeholder(hasDocument bool) string {
	switch f {
	case FeatureChat:
		if hasDocument {
			return "Ask a question about your document..."
		}
		return "Upload a document to start chatting..."
	case FeatureGeneralAI:
		return "Ask me anything..."
	case FeatureQuestionGeneration:
		return "Upload a document and generate questions..."
	case FeatureQuizGeneration:
		return "Upload a document and create quizzes..."
	case FeatureSystemHealth:
		return "System health monitoring - no input required"
	default:
		return "Type a message..."
	}
}
