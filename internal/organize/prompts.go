package organize

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy selects the grouping rubric.
type Strategy string

const (
	StrategyDomain   Strategy = "domain"
	StrategyTopic    Strategy = "topic"
	StrategyActivity Strategy = "activity"
	StrategySmart    Strategy = "smart"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyDomain, StrategyTopic, StrategyActivity, StrategySmart}

// ParseStrategy resolves a strategy name. Blank selects smart.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StrategySmart, nil
	}
	for _, st := range Strategies {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q (want one of domain, topic, activity, smart)", s)
}

var rubrics = map[Strategy]string{
	StrategyDomain: "Group tabs by website. Tabs from the same site or closely related sites " +
		"(for example docs and blog of one product) belong together. Name each group after the site.",
	StrategyTopic: "Group tabs by subject matter regardless of website. " +
		"Name each group after the shared topic in two to four words.",
	StrategyActivity: "Group tabs by what the user is doing with them: researching, shopping, " +
		"reading, communicating, working on a task, entertainment. Name each group after the activity.",
	StrategySmart: "Choose the grouping that will be most useful: combine topic, task and site signals. " +
		"Prefer a small number of meaningful groups over many tiny ones. Use short descriptive names.",
}

const replyFormat = `Reply with a single JSON object and nothing else:
{"assignments": [{"id": <tab id>, "group": "<group name>"}]}`

func systemPrompt(strategy Strategy, tabs []Tab) string {
	var b strings.Builder
	b.WriteString("You organize browser tabs into named groups.\n\n")
	b.WriteString(rubrics[strategy])
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Assign every tab to exactly one group.\n")
	b.WriteString("- Use only these tab ids, each exactly once: ")
	b.WriteString(idList(tabs))
	b.WriteString("\n- Every group name must be non-empty.\n\n")
	b.WriteString(replyFormat)
	return b.String()
}

func userPrompt(tabs []Tab, feedback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Organize these %d tabs:\n\n", len(tabs))
	for _, t := range tabs {
		fmt.Fprintf(&b, "[%d] %s\n    %s\n", t.ID, oneLine(t.Title), t.URL)
	}
	if fb := strings.TrimSpace(feedback); fb != "" {
		b.WriteString("\nUser feedback on the previous grouping: ")
		b.WriteString(fb)
		b.WriteString("\n")
	}
	return b.String()
}

func correctionPrompt(violations []Violation, tabs []Tab) string {
	var b strings.Builder
	b.WriteString("Your previous reply was rejected:\n")
	for _, v := range violations {
		b.WriteString("- ")
		b.WriteString(v.String())
		b.WriteString("\n")
	}
	b.WriteString("\nReturn the complete assignment again. The valid tab ids are exactly: ")
	b.WriteString(idList(tabs))
	b.WriteString("\nEach id must appear exactly once with a non-empty group.\n\n")
	b.WriteString(replyFormat)
	return b.String()
}

func idList(tabs []Tab) string {
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		parts = append(parts, strconv.Itoa(t.ID))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "(untitled)"
	}
	return s
}
