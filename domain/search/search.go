package search

import (
	"strconv"
	"strings"
)

// Query is the structured form of a history search typed in the console.
type Query struct {
	RawInput  string // The original input
	Terms     string // Free text matched against message content
	ChannelID string // Restricts the search to one channel when set
	Limit     int    // Maximum number of hits
}

// NewSearchQuery parses command-line style arguments.
// Example: /find exam schedule --channel 42 --limit 5
// Unknown flags are dropped with their value.
func NewSearchQuery(input string, defaultLimit int) *Query {
	query := &Query{RawInput: input, Limit: defaultLimit}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "channel":
				query.ChannelID = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			}
			i++ // Skip the value part
			continue
		}

		// Commands like /find are not search terms
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
