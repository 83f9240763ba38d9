package organize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

type assignmentReply struct {
	Assignments []Assignment `json:"assignments"`
}

// ParseReply extracts the assignment list from a model reply. The JSON may
// sit inside a markdown code fence or be wrapped in prose.
func ParseReply(raw string) ([]Assignment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("reply is empty")
	}

	candidates := fencedBlocks([]byte(raw))
	if obj, ok := embeddedObject(raw); ok {
		candidates = append(candidates, obj)
	}
	candidates = append(candidates, raw)

	var firstErr error
	for _, c := range candidates {
		out, err := decodeAssignments(c)
		if err == nil {
			return out, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func decodeAssignments(s string) ([]Assignment, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var out []Assignment
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return out, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := fields["assignments"]; !ok {
		return nil, errors.New(`JSON object has no "assignments" array`)
	}
	var reply assignmentReply
	if err := json.Unmarshal([]byte(s), &reply); err != nil {
		return nil, fmt.Errorf("invalid assignments: %w", err)
	}
	return reply.Assignments, nil
}

// embeddedObject returns the first complete JSON object in s that carries an
// "assignments" key. Braces in the surrounding prose are skipped.
func embeddedObject(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var obj map[string]json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		if _, ok := obj["assignments"]; ok {
			return s[i : i+int(dec.InputOffset())], true
		}
	}
	return "", false
}

// fencedBlocks returns the bodies of fenced code blocks, json-tagged first.
func fencedBlocks(src []byte) []string {
	doc := markdown.Parser().Parse(text.NewReader(src))
	var tagged, other []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		if strings.EqualFold(string(block.Language(src)), "json") {
			tagged = append(tagged, buf.String())
		} else {
			other = append(other, buf.String())
		}
		return ast.WalkSkipChildren, nil
	})
	return append(tagged, other...)
}
