package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

const actionPrompt = "action> "

// lineReader yields one line of user input, io.EOF when input ends.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

type readlineActions struct {
	rl *readline.Instance
}

func newReadlineActions(in io.Reader, out io.Writer, historyFile string) (*readlineActions, error) {
	stdin, ok := in.(io.ReadCloser)
	if !ok {
		return nil, fmt.Errorf("stdin is not read-closer")
	}
	inFile, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(inFile.Fd())) {
		return nil, fmt.Errorf("stdin is not terminal")
	}
	outFile, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(outFile.Fd())) {
		return nil, fmt.Errorf("stdout is not terminal")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          actionPrompt,
		HistoryFile:     historyFile,
		HistoryLimit:    200,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
		Stdin:           stdin,
		Stdout:          out,
		Stderr:          out,
	})
	if err != nil {
		return nil, err
	}
	return &readlineActions{rl: rl}, nil
}

func (r *readlineActions) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", err
	}
	return line, nil
}

func (r *readlineActions) Close() error {
	return r.rl.Close()
}

type stdioActions struct {
	in  *bufio.Reader
	out io.Writer
}

func (s *stdioActions) ReadLine() (string, error) {
	if _, err := fmt.Fprint(s.out, actionPrompt); err != nil {
		return "", err
	}
	line, err := s.in.ReadString('\n')
	if err != nil {
		if len(line) > 0 {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

func (s *stdioActions) Close() error {
	return nil
}

func newActionReader(in io.Reader, out io.Writer, dataDir string) lineReader {
	history := filepath.Join(dataDir, "actions_history")
	if rl, err := newReadlineActions(in, out, history); err == nil {
		return rl
	}
	return &stdioActions{in: bufio.NewReader(in), out: out}
}

// promptActions collects requested actions, one per line, until a blank line
// or end of input.
func promptActions(r lineReader, out io.Writer) ([]string, error) {
	defer r.Close()
	if _, err := fmt.Fprintln(out, "Enter the actions to run on the selected tabs, one per line. Finish with an empty line."); err != nil {
		return nil, err
	}

	var actions []string
	for {
		raw, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return actions, nil
			}
			return nil, err
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			return actions, nil
		}
		actions = append(actions, line)
	}
}
