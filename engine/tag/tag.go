// Package tag extracts ChunkTags from chunk text using fixed regex and
// stoplist rules. No LLM call is involved, so tagging is deterministic and
// cheap enough to run on every chunk at ingest time.
package tag

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jarvis-ai/jarvis/engine/domain"
)

const (
	maxPeople      = 5
	maxProjects    = 5
	maxDecisions   = 3
	maxActionItems = 3
	maxTopics      = 5
	maxDates       = 5
	truncateChars  = 150
)

var personStopwords = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
	"January": true, "February": true, "March": true, "April": true, "May": true,
	"June": true, "July": true, "August": true, "September": true, "October": true,
	"November": true, "December": true,
	"I": true, "The": true, "This": true, "That": true, "We": true, "They": true,
	"It": true, "Manager": true, "Lead": true, "Team": true, "Engineer": true,
}

var personCuePattern = regexp.MustCompile(`\b(?:with|from|to|cc|by)\s*:?\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)`)
var atMentionPattern = regexp.MustCompile(`@([A-Z][a-zA-Z]+)`)
var bigramPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z]+)\s+([A-Z][a-zA-Z]+)\b`)

var projectCuePattern = regexp.MustCompile(`(?i)\b(?:project|repo|repository)\s+([A-Za-z][\w-]*)`)
var githubRepoPattern = regexp.MustCompile(`github\.com/[\w-]+/([\w.-]+)`)
var camelCasePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)+)\b`)

var decisionVerbs = []string{"decided", "agreed", "will do", "chose", "settled on", "concluded", "determined", "resolved"}
var actionCues = []string{"need to", "should", "must", "todo", "action item", "task:", "next step"}

var isoDatePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
var longDatePattern = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)
var slashDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
	"have": true, "from": true, "are": true, "was": true, "were": true, "will": true,
	"been": true, "has": true, "had": true, "not": true, "but": true, "you": true,
	"your": true, "our": true, "their": true, "they": true, "them": true, "what": true,
	"when": true, "which": true, "who": true, "about": true, "into": true, "over": true,
	"also": true, "can": true, "could": true, "would": true, "should": true, "just": true,
}

var positiveWords = map[string]bool{
	"great": true, "good": true, "excellent": true, "happy": true, "excited": true,
	"awesome": true, "love": true, "success": true, "pleased": true, "glad": true,
	"thanks": true, "thank": true, "perfect": true, "nice": true,
}

var negativeWords = map[string]bool{
	"bad": true, "problem": true, "issue": true, "fail": true, "failed": true,
	"broken": true, "wrong": true, "concerned": true, "worried": true, "annoyed": true,
	"frustrated": true, "blocked": true, "delay": true, "delayed": true,
}

var sentenceSplitter = regexp.MustCompile(`[.!?]+\s+`)

// Extract produces ChunkTags from chunk text.
func Extract(text string) domain.ChunkTags {
	return domain.ChunkTags{
		People:       extractPeople(text),
		Projects:     extractProjects(text),
		Decisions:    extractSentences(text, decisionVerbs, maxDecisions),
		ActionItems:  extractSentences(text, actionCues, maxActionItems),
		Topics:       extractTopics(text),
		DatesMention: extractDates(text),
		Sentiment:    extractSentiment(text),
	}
}

func extractPeople(text string) []string {
	var found []string
	seen := map[string]bool{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || personStopwords[name] || seen[name] {
			return
		}
		seen[name] = true
		found = append(found, name)
	}

	for _, m := range personCuePattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range atMentionPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range bigramPattern.FindAllStringSubmatch(text, -1) {
		full := m[1] + " " + m[2]
		if personStopwords[m[1]] || personStopwords[m[2]] {
			continue
		}
		add(full)
	}

	return capList(found, maxPeople)
}

func extractProjects(text string) []string {
	var found []string
	seen := map[string]bool{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		found = append(found, name)
	}

	for _, m := range projectCuePattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range githubRepoPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	camelCounts := map[string]int{}
	for _, m := range camelCasePattern.FindAllString(text, -1) {
		camelCounts[m]++
	}
	var camelCandidates []string
	for name, count := range camelCounts {
		if count >= 2 {
			camelCandidates = append(camelCandidates, name)
		}
	}
	sort.Strings(camelCandidates)
	for _, name := range camelCandidates {
		add(name)
	}

	return capList(found, maxProjects)
}

func extractSentences(text string, cues []string, max int) []string {
	sentences := sentenceSplitter.Split(text, -1)
	var found []string
	for _, s := range sentences {
		lower := strings.ToLower(s)
		for _, cue := range cues {
			if strings.Contains(lower, cue) {
				found = append(found, truncate(strings.TrimSpace(s), truncateChars))
				break
			}
		}
		if len(found) >= max {
			break
		}
	}
	return found
}

func extractTopics(text string) []string {
	wordRe := regexp.MustCompile(`[a-zA-Z]{3,}`)
	counts := map[string]int{}
	var order []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if stopwords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	return capList(order, maxTopics)
}

func extractDates(text string) []string {
	var found []string
	seen := map[string]bool{}
	add := func(matches []string) {
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				found = append(found, m)
			}
		}
	}
	add(isoDatePattern.FindAllString(text, -1))
	add(longDatePattern.FindAllString(text, -1))
	add(slashDatePattern.FindAllString(text, -1))
	return capList(found, maxDates)
}

func extractSentiment(text string) domain.Sentiment {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for w := range positiveWords {
		pos += strings.Count(lower, w)
	}
	for w := range negativeWords {
		neg += strings.Count(lower, w)
	}
	switch {
	case pos-neg >= 2:
		return domain.SentimentPositive
	case neg-pos >= 2:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func capList(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}
