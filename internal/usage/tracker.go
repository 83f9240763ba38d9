// Package usage keeps a JSONL log of model calls made by orchestration
// sessions.
package usage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mhismail3/moosetabs/internal/store"
)

// OutcomeOK marks a successful call. Failed calls carry the error kind.
const OutcomeOK = "ok"

// Record is one logged model call.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Session    string    `json:"session"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Outcome    string    `json:"outcome"`
	DurationMS int64     `json:"duration_ms"`
}

// Failed reports whether the call did not succeed.
func (r Record) Failed() bool {
	return r.Outcome != OutcomeOK
}

// Totals counts calls and failures in one period.
type Totals struct {
	Calls    int
	Failures int
}

// Summary holds today's and this month's totals, plus per-model month calls.
type Summary struct {
	Today   Totals
	Month   Totals
	ByModel map[string]int
}

// Recorder is the write side used by the orchestrator.
type Recorder interface {
	Append(ctx context.Context, rec Record) error
}

// Tracker appends records to a JSONL file and summarizes them.
type Tracker struct {
	path string
}

// New returns a Tracker for the usage JSONL path.
func New(path string) *Tracker {
	return &Tracker{path: path}
}

// Path returns the backing file.
func (t *Tracker) Path() string {
	return t.path
}

// Append writes one record.
func (t *Tracker) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.path == "" {
		return errors.New("usage path is required")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal usage record: %w", err)
	}
	if err := store.AppendFile(t.path, append(encoded, '\n')); err != nil {
		return fmt.Errorf("append usage record: %w", err)
	}
	return nil
}

// Summary totals records for the day and month containing now. Malformed
// lines are skipped.
func (t *Tracker) Summary(ctx context.Context, now time.Time) (Summary, error) {
	out := Summary{ByModel: map[string]int{}}

	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	if t.path == "" {
		return Summary{}, errors.New("usage path is required")
	}
	if now.IsZero() {
		now = time.Now()
	}

	f, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("open usage file: %w", err)
	}
	defer f.Close()

	nowLocal := now.In(time.Local)
	todayYear, todayMonth, todayDay := nowLocal.Date()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil || rec.Timestamp.IsZero() {
			continue
		}
		y, m, d := rec.Timestamp.In(time.Local).Date()
		if y != todayYear || m != todayMonth {
			continue
		}
		out.Month.add(rec)
		out.ByModel[rec.Provider+"/"+rec.Model]++
		if d == todayDay {
			out.Today.add(rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, fmt.Errorf("scan usage file: %w", err)
	}
	return out, nil
}

func (t *Totals) add(rec Record) {
	t.Calls++
	if rec.Failed() {
		t.Failures++
	}
}
