// Package followup finds the "suggested follow-up questions" section that
// the answer service sometimes embeds in answer text, and lifts it out.
package followup

import (
	"html"
	"regexp"
	"strings"
)

// headingPhrase matches headings such as "Proposed follow-up questions",
// "Here are some related questions" or a bare "Questions".
const headingPhrase = `(?:here\s+are\s+(?:some|the)\s+)?` +
	`(?:(?:proposed|suggested|recommended|related|next)\s+)?` +
	`(?:follow[-\s]*up\s+)?` +
	`questions?`

var (
	htmlSection = regexp.MustCompile(`(?is)<(?:p|h[1-6])\b[^>]*>\s*(?:<(?:strong|b)\b[^>]*>\s*)?` +
		headingPhrase +
		`\s*:?\s*(?:</(?:strong|b)>\s*)?:?\s*</(?:p|h[1-6])>\s*<(?:ul|ol)\b[^>]*>(.*?)</(?:ul|ol)>`)
	htmlItem   = regexp.MustCompile(`(?is)<li\b[^>]*>(.*?)</li>`)
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)

	markdownHeading = regexp.MustCompile(`(?i)^\s*(?:#+\s*)?(?:\*\*|__)?\s*` +
		headingPhrase +
		`\s*:?\s*(?:\*\*|__)?\s*:?\s*$`)
	markdownBullet = regexp.MustCompile(`^\s*(?:[-*•–—]|\d+[.)])\s+(.*\S)\s*$`)
)

// Extract returns text with the follow-up section removed, plus the
// questions it listed. When no section with at least one item is found the
// text comes back unchanged and followUps is nil.
func Extract(text string) (cleaned string, followUps []string) {
	if cleaned, followUps, ok := extractHTML(text); ok {
		return cleaned, followUps
	}
	if cleaned, followUps, ok := extractMarkdown(text); ok {
		return cleaned, followUps
	}
	return text, nil
}

func extractHTML(text string) (string, []string, bool) {
	loc := htmlSection.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", nil, false
	}

	var items []string
	for _, m := range htmlItem.FindAllStringSubmatch(text[loc[2]:loc[3]], -1) {
		item := htmlTag.ReplaceAllString(m[1], "")
		item = html.UnescapeString(item)
		item = strings.TrimSpace(whitespace.ReplaceAllString(item, " "))
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return "", nil, false
	}
	return text[:loc[0]] + text[loc[1]:], items, true
}

func extractMarkdown(text string) (string, []string, bool) {
	lines := strings.Split(text, "\n")

	heading := -1
	for i, line := range lines {
		if markdownHeading.MatchString(strings.TrimSuffix(line, "\r")) {
			heading = i
			break
		}
	}
	if heading < 0 {
		return "", nil, false
	}

	next := heading + 1
	if next < len(lines) && strings.TrimSpace(lines[next]) == "" {
		next++
	}

	var items []string
	end := next
	for ; end < len(lines); end++ {
		m := markdownBullet.FindStringSubmatch(strings.TrimSuffix(lines[end], "\r"))
		if m == nil {
			break
		}
		items = append(items, strings.TrimSpace(m[1]))
	}
	if len(items) == 0 {
		return "", nil, false
	}

	kept := make([]string, 0, heading+len(lines)-end)
	kept = append(kept, lines[:heading]...)
	kept = append(kept, lines[end:]...)
	return strings.Join(kept, "\n"), items, true
}
