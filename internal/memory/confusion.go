package memory

import "strings"

// DefaultConfusionPhrases flag replies where the agent failed to pin
// down what the user is asking about. The list is injectable through
// HistoryConfig so deployments can localize it without code changes.
var DefaultConfusionPhrases = []string{
	"did not identify",
	"could not identify",
	"please provide the main name",
	"sorry, i",
	"can you provide",
}

// detectConfusion reports whether the tail of the window reads like
// the agent going in circles: at least two distinct phrases must
// appear in the combined text of the last three messages.
func detectConfusion(window []Message, phrases []string) bool {
	if len(window) < 3 {
		return false
	}

	var b strings.Builder
	for _, m := range window[len(window)-3:] {
		b.WriteString(strings.ToLower(m.Content))
		b.WriteString(" ")
	}
	recent := b.String()

	matched := 0
	for _, phrase := range phrases {
		if strings.Contains(recent, strings.ToLower(phrase)) {
			matched++
		}
	}
	return matched >= 2
}
