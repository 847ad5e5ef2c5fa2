// Package command defines the closed vocabulary of analysis commands that
// can be run against a structured conversation. Commands arrive as text
// (typically selected by an upstream language-model service) and are parsed
// into typed variants by a strict parser; nothing outside the fixed set is
// ever executed.
package command

import (
	"strings"

	"callinsight/pkg/errors"
)

// Command is a parsed analysis request. Exactly one concrete type exists
// per supported operation.
type Command interface {
	// Name returns the command's wire name.
	Name() string
}

// ShowSentimentText reports sentiment tallies for one summary bucket.
type ShowSentimentText struct {
	Speaker       string // Net | Handler | Client
	SentimentType string // all | positive | neutral | negative
}

// CountMessage reports the total for one compliance counter.
type CountMessage struct {
	CountType string // greeting | disclaimer | closure | pii
}

// DialogInstance lists the transcript lines where a dialog type occurred.
type DialogInstance struct {
	DialogType string // greeting | disclaimer | closure | prohibited_words | pii
}

// TimeSplit reports how talk time divides between the roles.
type TimeSplit struct {
	Speaker string // all | handler | client
}

// ConversationSpeed reports words-per-second for a role.
type ConversationSpeed struct {
	Speaker string // all | handler | client
}

// AnalyzeSigns rolls all compliance checks up into good/bad signs.
type AnalyzeSigns struct {
	SignType string // good_signs | bad_signs | all
}

func (ShowSentimentText) Name() string { return "show_sentiment_text" }
func (CountMessage) Name() string      { return "get_count_message" }
func (DialogInstance) Name() string    { return "get_dialog_instance" }
func (TimeSplit) Name() string         { return "show_time_split" }
func (ConversationSpeed) Name() string { return "show_conversation_speed" }
func (AnalyzeSigns) Name() string      { return "analyze_signs" }

// Parse converts one `name(arg, ...)` expression into a typed command.
// Unknown names, wrong arity, and out-of-vocabulary arguments are all
// rejected; the input is never evaluated as code.
func Parse(input string) (Command, error) {
	name, args, err := splitCall(input)
	if err != nil {
		return nil, err
	}

	switch name {
	case "show_sentiment_text":
		if err := wantArgs(name, args, 2); err != nil {
			return nil, err
		}
		speaker, err := enumArg(name, "speaker", args[0], "Net", "Handler", "Client")
		if err != nil {
			return nil, err
		}
		sentimentType, err := enumArg(name, "sentiment_type", args[1], "all", "positive", "neutral", "negative")
		if err != nil {
			return nil, err
		}
		return ShowSentimentText{Speaker: speaker, SentimentType: sentimentType}, nil

	case "get_count_message":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		countType, err := enumArg(name, "count_type", args[0], "greeting", "disclaimer", "closure", "pii")
		if err != nil {
			return nil, err
		}
		return CountMessage{CountType: countType}, nil

	case "get_dialog_instance":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		dialogType, err := enumArg(name, "dialog_type", args[0], "greeting", "disclaimer", "closure", "prohibited_words", "pii")
		if err != nil {
			return nil, err
		}
		return DialogInstance{DialogType: dialogType}, nil

	case "show_time_split":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		speaker, err := enumArg(name, "speaker", args[0], "all", "handler", "client")
		if err != nil {
			return nil, err
		}
		return TimeSplit{Speaker: speaker}, nil

	case "show_conversation_speed":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		speaker, err := enumArg(name, "speaker", args[0], "all", "handler", "client")
		if err != nil {
			return nil, err
		}
		return ConversationSpeed{Speaker: speaker}, nil

	case "analyze_signs":
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		signType, err := enumArg(name, "sign_type", args[0], "good_signs", "bad_signs", "all")
		if err != nil {
			return nil, err
		}
		return AnalyzeSigns{SignType: signType}, nil
	}

	return nil, errors.NewUnknownCommand(name)
}

// ParseAll parses a pipe-separated batch of command expressions. The batch
// fails as a whole on the first rejected expression.
func ParseAll(input string) ([]Command, error) {
	parts := strings.Split(input, "|")
	commands := make([]Command, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cmd, err := Parse(part)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// splitCall breaks `name(a, b)` into its name and raw argument list.
func splitCall(input string) (string, []string, error) {
	input = strings.TrimSpace(input)

	open := strings.IndexByte(input, '(')
	if open < 0 || !strings.HasSuffix(input, ")") {
		return "", nil, errors.NewInvalidInput("command must have the form name(args)",
			map[string]interface{}{"input": input})
	}

	name := strings.TrimSpace(input[:open])
	if name == "" || !isIdentifier(name) {
		return "", nil, errors.NewInvalidInput("invalid command name",
			map[string]interface{}{"input": input})
	}

	inner := strings.TrimSpace(input[open+1 : len(input)-1])
	if inner == "" {
		return name, nil, nil
	}

	raw := strings.Split(inner, ",")
	args := make([]string, 0, len(raw))
	for _, arg := range raw {
		arg = strings.TrimSpace(arg)
		arg = strings.Trim(arg, `'"`)
		args = append(args, arg)
	}
	return name, args, nil
}

func wantArgs(name string, args []string, n int) error {
	if len(args) != n {
		return errors.NewInvalidInput("wrong argument count",
			map[string]interface{}{"command": name, "want": n, "got": len(args)})
	}
	return nil
}

func enumArg(name, param, value string, allowed ...string) (string, error) {
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", errors.NewInvalidInput("argument outside allowed vocabulary",
		map[string]interface{}{"command": name, "param": param, "value": value})
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
