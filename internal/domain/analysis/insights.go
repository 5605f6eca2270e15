package analysis

import "strings"

// ComputeInsights assumes ~250 words per page and ~200 words per minute.
func ComputeInsights(text string) Insights {
	words := len(strings.Fields(text))
	return Insights{
		WordCount:         words,
		CharacterCount:    len([]rune(text)),
		EstimatedPages:    max(1, words/250),
		EstimatedReadTime: max(1, words/200),
	}
}

// EstimateProcessingTime returns the expected pipeline duration in seconds.
func EstimateProcessingTime(textLength int) int {
	switch {
	case textLength < 1000:
		return 15
	case textLength < 5000:
		return 30
	case textLength < 10000:
		return 45
	default:
		return 60
	}
}
