package service

import "strings"

// ExtractProductNames returns the non-blank trimmed lines of receipt text
// that contain none of the stopwords (prices, totals, store headers).
func ExtractProductNames(text string, stopwords []string) []string {
	names := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || containsStopword(line, stopwords) {
			continue
		}
		names = append(names, line)
	}
	return names
}

func containsStopword(line string, stopwords []string) bool {
	for _, w := range stopwords {
		if w != "" && strings.Contains(line, w) {
			return true
		}
	}
	return false
}
