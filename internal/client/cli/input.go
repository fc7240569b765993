package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// out is a test seam for user-facing prompts. In tests, replace it with a buffer.
var out io.Writer = os.Stdout

// GetSimpleText prints a prompt and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetFloat reads a line and parses it as a float. An empty line returns 0.
func GetFloat(reader *bufio.Reader, prompt string) (float64, error) {
	s, err := GetSimpleText(reader, prompt)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// GetList reads a line and splits it on commas, trimming whitespace around
// each element. An empty line returns nil.
func GetList(reader *bufio.Reader, prompt string) ([]string, error) {
	s, err := GetSimpleText(reader, prompt)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items, nil
}
