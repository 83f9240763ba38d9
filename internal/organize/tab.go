// Package organize asks a model to assign browser tabs to named groups and
// rejects any reply that does not place every tab exactly once.
package organize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Tab is one entry of the tab snapshot.
type Tab struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Domain returns the URL host without a leading "www.", or "" when the URL
// has no host.
func (t Tab) Domain() string {
	u, err := url.Parse(strings.TrimSpace(t.URL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Assignment places one tab in one group.
type Assignment struct {
	TabID int    `json:"id"`
	Group string `json:"group"`
}

// UnmarshalJSON accepts the id as a number or a numeric string and trims
// the group name, so "Go " and "Go" from a reply name the same group.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Group string          `json:"group"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := parseTabID(raw.ID)
	if err != nil {
		return err
	}
	a.TabID = id
	a.Group = strings.TrimSpace(raw.Group)
	return nil
}

func parseTabID(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("assignment has no id")
	}
	var n json.Number
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		n = json.Number(strings.TrimSpace(s))
	} else if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("assignment id %s is not a number", raw)
	}
	id, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, fmt.Errorf("assignment id %q is not an integer", n.String())
	}
	return id, nil
}

// Group is one named group of tab ids in first-seen order.
type Group struct {
	Name   string `json:"name"`
	TabIDs []int  `json:"tab_ids"`
}

// Organization is the accepted result of an organize call.
type Organization struct {
	Groups      []Group `json:"groups"`
	Explanation string  `json:"explanation"`
}

// GroupAssignments groups a valid assignment set by exact group name. Groups
// keep the order in which their names first appear; tab ids keep assignment
// order.
func GroupAssignments(assignments []Assignment) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, a := range assignments {
		i, ok := index[a.Group]
		if !ok {
			i = len(groups)
			index[a.Group] = i
			groups = append(groups, Group{Name: a.Group})
		}
		groups[i].TabIDs = append(groups[i].TabIDs, a.TabID)
	}
	return groups
}
