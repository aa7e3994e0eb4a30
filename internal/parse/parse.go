// Package parse extracts bookmark submissions from free-form chat text.
package parse

import (
	"regexp"
	"strings"
)

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	labelPattern = regexp.MustCompile(`\+(\w+)`)
)

// Message is a parsed bookmark submission.
type Message struct {
	URL    string
	Title  string   // "" when the remainder was all whitespace
	Labels []string // first-occurrence order, duplicates preserved
}

// Parse extracts the first URL token, the +labels, and the leftover title
// from text. Returns nil when no URL is present. The URL token is taken
// verbatim: trailing punctuation attached to it is kept.
func Parse(text string) *Message {
	url := urlPattern.FindString(text)
	if url == "" {
		return nil
	}

	remainder := strings.ReplaceAll(text, url, "")

	var labels []string
	for _, m := range labelPattern.FindAllStringSubmatch(remainder, -1) {
		labels = append(labels, m[1])
	}
	for _, lbl := range labels {
		remainder = strings.ReplaceAll(remainder, "+"+lbl, "")
	}

	return &Message{
		URL:    url,
		Title:  strings.TrimSpace(remainder),
		Labels: labels,
	}
}
