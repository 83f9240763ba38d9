package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mhismail3/moosetabs/internal/organize"
)

// readTabs loads a tab snapshot from path, or from in when path is "-".
// Both a bare array and an object with a "tabs" field are accepted.
func readTabs(path string, in io.Reader) ([]organize.Tab, error) {
	if path == "" {
		return nil, errors.New("--tabs is required (a JSON file, or - for stdin)")
	}
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(in)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read tabs: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	var tabs []organize.Tab
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &tabs)
	} else {
		var doc struct {
			Tabs []organize.Tab `json:"tabs"`
		}
		err = json.Unmarshal(raw, &doc)
		tabs = doc.Tabs
	}
	if err != nil {
		return nil, fmt.Errorf("parse tabs %s: %w", path, err)
	}
	if len(tabs) == 0 {
		return nil, organize.ErrNoTabs
	}
	return tabs, nil
}
