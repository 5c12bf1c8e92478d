package service

import "strings"

// Sentiment is derived by keyword counting, not NLP. The lists are small and
// fixed; the point is a reproducible label, not accuracy.

var positiveWords = map[string]struct{}{
	"great": {}, "good": {}, "happy": {}, "calm": {}, "energized": {},
	"progress": {}, "better": {}, "grateful": {}, "rested": {}, "strong": {},
	"motivated": {}, "excited": {}, "improved": {}, "win": {}, "breakthrough": {},
}

var negativeWords = map[string]struct{}{
	"tired": {}, "stressed": {}, "anxious": {}, "bad": {}, "worse": {},
	"exhausted": {}, "overwhelmed": {}, "frustrated": {}, "sad": {}, "pain": {},
	"stuck": {}, "worried": {}, "burnout": {}, "insomnia": {}, "relapse": {},
}

// themeKeywords buckets note vocabulary into recurring themes.
var themeKeywords = map[string][]string{
	"sleep":         {"sleep", "insomnia", "rested", "nap", "tired"},
	"stress":        {"stress", "stressed", "anxious", "overwhelmed", "pressure"},
	"energy":        {"energy", "energized", "exhausted", "fatigue"},
	"work":          {"work", "job", "deadline", "meeting", "career"},
	"relationships": {"partner", "family", "friend", "relationship", "social"},
}

// SentimentResult is the derived classification for one note body.
type SentimentResult struct {
	Label  string   // positive | negative | neutral
	Score  int      // positive hits minus negative hits
	Themes []string // sorted by themeOrder
}

var themeOrder = []string{"sleep", "stress", "energy", "work", "relationships"}

// AnalyzeSentiment counts positive and negative keywords in the body and
// collects theme buckets with at least one hit.
func AnalyzeSentiment(body string) SentimentResult {
	words := tokenize(body)

	score := 0
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			score++
		}
		if _, ok := negativeWords[w]; ok {
			score--
		}
	}

	label := "neutral"
	if score > 0 {
		label = "positive"
	} else if score < 0 {
		label = "negative"
	}

	seen := map[string]bool{}
	for _, w := range words {
		for theme, keys := range themeKeywords {
			for _, k := range keys {
				if w == k {
					seen[theme] = true
				}
			}
		}
	}
	var themes []string
	for _, theme := range themeOrder {
		if seen[theme] {
			themes = append(themes, theme)
		}
	}

	return SentimentResult{Label: label, Score: score, Themes: themes}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
