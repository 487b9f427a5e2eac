package process

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyCommand is returned for a blank command string.
	ErrEmptyCommand = errors.New("empty command")
	// ErrUnclosedQuote is returned when a quote is left open.
	ErrUnclosedQuote = errors.New("unclosed quote in command")
)

// parseCommand splits a command string into arguments. Single and double
// quotes group words, a backslash escapes the next character (inside quotes
// too) and an empty quoted string yields an empty argument.
func parseCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoted := false
	quoteChar := rune(0)

	runes := []rune(strings.TrimSpace(command))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoted = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case (r == ' ' || r == '\t' || r == '\n') && !inQuote:
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		case r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if inQuote {
		return nil, ErrUnclosedQuote
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}

	return args, nil
}
