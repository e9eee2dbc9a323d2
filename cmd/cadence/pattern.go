package main

import (
	"fmt"
	"strings"

	"github.com/dudk/cadence/sequence"
)

// parsePattern parses space separated steps. A dash is a rest and square
// brackets group steps into one slot, e.g. "c [e e] - g".
func parsePattern(s string) ([]sequence.Step[string], error) {
	tokens := strings.Fields(strings.NewReplacer("[", " [ ", "]", " ] ").Replace(s))
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	steps, rest, err := parseSteps(tokens, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected %q", rest[0])
	}
	return steps, nil
}

func parseSteps(tokens []string, depth int) ([]sequence.Step[string], []string, error) {
	var steps []sequence.Step[string]
	for len(tokens) > 0 {
		tok := tokens[0]
		tokens = tokens[1:]
		switch tok {
		case "[":
			group, rest, err := parseSteps(tokens, depth+1)
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || rest[0] != "]" {
				return nil, nil, fmt.Errorf("unclosed group")
			}
			steps = append(steps, sequence.Group(group...))
			tokens = rest[1:]
		case "]":
			if depth == 0 {
				return nil, nil, fmt.Errorf("unexpected %q", tok)
			}
			return steps, append([]string{tok}, tokens...), nil
		case "-":
			steps = append(steps, sequence.Rest[string]())
		default:
			steps = append(steps, sequence.Note(tok))
		}
	}
	return steps, nil, nil
}
