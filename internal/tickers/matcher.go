package tickers

import "strings"

const MaxSuggestions = 8

// Search returns up to MaxSuggestions catalog symbols containing query,
// case-insensitively, in catalog order. An empty query yields nothing,
// which callers treat as "hide the suggestion panel".
func (c Catalog) Search(query string) []string {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return []string{}
	}

	out := []string{}
	for _, symbol := range c.symbols {
		if strings.Contains(symbol, query) {
			out = append(out, symbol)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}
