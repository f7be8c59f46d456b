package llm

import (
	"fmt"
	"strings"
)

// Prompt section markers. The local stub reads its inputs back from them.
const (
	markerName  = "Representative Name:"
	markerNews  = "News Summary:"
	markerPosts = "Social Media Posts:"
)

const postSeparator = "\n\n---\n\n"

// SystemPrompt returns the system instruction sent for a task. Empty string
// means no system prompt.
func SystemPrompt(task Task) string {
	switch task {
	case TaskFactCheck:
		return "You are an AI assistant that summarizes news articles to assess a political representative's integrity. " +
			"Provide a neutral, fact-based summary of potential integrity issues, controversies or scandals based only on the articles provided. " +
			"Do not invent information. If the articles show no significant integrity concerns, state that clearly. " +
			`Respond with a JSON object of the form {"integrityReport": "..."}.`
	case TaskIntegritySummary:
		return "You are an AI assistant that summarizes news articles. " +
			"Summarize any verified sagas or scandals associated with the representative, focusing on integrity and ethical conduct. " +
			`Respond with a JSON object of the form {"integrityReport": "..."}.`
	case TaskSocialHighlights:
		return "You are an expert political analyst. Identify key professional highlights from a representative's social media posts. " +
			"Focus on concrete achievements, policy stances and significant announcements. Ignore personal content. " +
			`Respond with a JSON object {"highlights": [{"title", "date" (YYYY-MM-DD), "description", "category", "sourceUrl"}]}. ` +
			"Category must be one of: Achievement, Significant Vote, Important Statement, Project Launch."
	default:
		return ""
	}
}

// FactCheckPrompt asks for an integrity assessment from searched news.
func FactCheckPrompt(name, news string) string {
	var sb strings.Builder
	sb.WriteString("Fact-check the following representative.\n\n")
	fmt.Fprintf(&sb, "%s %s\n", markerName, name)
	fmt.Fprintf(&sb, "%s\n%s\n", markerNews, news)
	return sb.String()
}

// IntegritySummaryPrompt asks for a summary of a caller-supplied news digest.
func IntegritySummaryPrompt(name, newsSummary string) string {
	var sb strings.Builder
	sb.WriteString("Given the following information about a representative, summarize any verified sagas or scandals associated with them.\n\n")
	fmt.Fprintf(&sb, "%s %s\n", markerName, name)
	fmt.Fprintf(&sb, "%s\n%s\n", markerNews, newsSummary)
	return sb.String()
}

// SocialHighlightsPrompt asks for up to five highlights from posts.
func SocialHighlightsPrompt(name, posts string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the following posts from %s.\n", name)
	sb.WriteString("Extract up to 5 significant highlights. For each highlight, provide a title, date, description, category, and a source URL if mentioned.\n\n")
	fmt.Fprintf(&sb, "%s %s\n", markerName, name)
	fmt.Fprintf(&sb, "%s\n%s\n", markerPosts, posts)
	return sb.String()
}

// section returns the text following marker up to the next known marker.
func section(prompt, marker string) string {
	i := strings.Index(prompt, marker)
	if i < 0 {
		return ""
	}
	rest := prompt[i+len(marker):]
	end := len(rest)
	for _, m := range []string{markerName, markerNews, markerPosts} {
		if m == marker {
			continue
		}
		if j := strings.Index(rest, m); j >= 0 && j < end {
			end = j
		}
	}
	return strings.TrimSpace(rest[:end])
}
