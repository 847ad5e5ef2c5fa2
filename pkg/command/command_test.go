package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callinsight/pkg/errors"
)

func TestParseValidCommands(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"show_sentiment_text(Net, all)", ShowSentimentText{Speaker: "Net", SentimentType: "all"}},
		{"show_sentiment_text('Handler', 'negative')", ShowSentimentText{Speaker: "Handler", SentimentType: "negative"}},
		{"get_count_message(greeting)", CountMessage{CountType: "greeting"}},
		{"get_count_message(pii)", CountMessage{CountType: "pii"}},
		{"get_dialog_instance(prohibited_words)", DialogInstance{DialogType: "prohibited_words"}},
		{"show_time_split(all)", TimeSplit{Speaker: "all"}},
		{"show_conversation_speed(handler)", ConversationSpeed{Speaker: "handler"}},
		{"analyze_signs(bad_signs)", AnalyzeSigns{SignType: "bad_signs"}},
		{"  analyze_signs( all )  ", AnalyzeSigns{SignType: "all"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown command", "drop_tables(all)"},
		{"no parentheses", "analyze_signs"},
		{"missing close paren", "analyze_signs(all"},
		{"empty name", "(all)"},
		{"name with spaces", "analyze signs(all)"},
		{"wrong arity", "show_sentiment_text(Net)"},
		{"extra argument", "get_count_message(greeting, extra)"},
		{"out of vocabulary", "get_count_message(everything)"},
		{"bad sentiment bucket", "show_sentiment_text(Nobody, all)"},
		{"code injection attempt", "analyze_signs(all); rm -rf /()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestParseUnknownCommandSentinel(t *testing.T) {
	_, err := Parse("do_everything()")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrUnknownCommand))
}

func TestParseAll(t *testing.T) {
	commands, err := ParseAll("get_count_message(greeting) | analyze_signs(all)")
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "get_count_message", commands[0].Name())
	assert.Equal(t, "analyze_signs", commands[1].Name())
}

func TestParseAllFailsWholeBatch(t *testing.T) {
	_, err := ParseAll("get_count_message(greeting) | bogus(all)")
	assert.Error(t, err)
}

func TestParseAllSkipsEmptyParts(t *testing.T) {
	commands, err := ParseAll(" | get_count_message(pii) | ")
	require.NoError(t, err)
	assert.Len(t, commands, 1)
}
