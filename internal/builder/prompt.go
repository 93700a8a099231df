package builder

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Answer is the decision taken about a stale build directory
type Answer int

const (
	AnswerCancel Answer = iota
	AnswerRemove
	AnswerKeep
)

// String returns the string representation of Answer
func (a Answer) String() string {
	switch a {
	case AnswerCancel:
		return "cancel"
	case AnswerRemove:
		return "remove"
	case AnswerKeep:
		return "keep"
	default:
		return "unknown"
	}
}

// ParseAnswer accepts an answer by its full name or its initial
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "cancel":
		return AnswerCancel, nil
	case "r", "remove":
		return AnswerRemove, nil
	case "k", "keep":
		return AnswerKeep, nil
	default:
		return AnswerCancel, fmt.Errorf("invalid answer %q", s)
	}
}

// Prompter asks the operator what to do with a stale build directory
type Prompter interface {
	Ask(question string) (Answer, error)
}

// FixedPrompter always gives the same answer
type FixedPrompter struct {
	Answer Answer
}

// Ask implements Prompter
func (p FixedPrompter) Ask(question string) (Answer, error) {
	return p.Answer, nil
}

// ConsolePrompter asks on a terminal, cancelling by default
type ConsolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter creates a prompter reading answers from in
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: bufio.NewReader(in), out: out}
}

// Ask implements Prompter. Invalid answers are asked again.
func (p *ConsolePrompter) Ask(question string) (Answer, error) {
	for {
		fmt.Fprintf(p.out, "%s [C/r/k] ", question)

		line, err := p.in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return AnswerCancel, nil
			}
			return AnswerCancel, err
		}

		if strings.TrimSpace(line) == "" {
			return AnswerCancel, nil
		}

		answer, err := ParseAnswer(line)
		if err == nil {
			return answer, nil
		}

		fmt.Fprintln(p.out, "Invalid answer, please choose one of c, r or k.")
	}
}
