package transcript

import (
	"fmt"
	"strconv"
	"strings"

	"callinsight/pkg/errors"
)

// SentimentDelimiter separates a line's free text from its trailing
// sentiment tag in the serialized transcript format.
const SentimentDelimiter = " SENTIMENT:"

// RenderLine serializes one annotated turn into the transcript line format:
//
//	<start> <end> <speaker_label> <text...> SENTIMENT:<label>
//
// Timestamps carry two fraction digits. The text may contain spaces; the
// sentiment tag is recovered by the parser via the last delimiter occurrence.
func RenderLine(line Line) string {
	return fmt.Sprintf("%.2f %.2f %s %s%s%s",
		line.Interval.Start, line.Interval.End, line.Speaker,
		line.Text, SentimentDelimiter, line.Sentiment)
}

// ParseLine recovers a Line from its serialized form. The first three
// whitespace boundaries delimit start, end and speaker; the remainder is
// free text up to the last occurrence of the sentiment delimiter.
func ParseLine(raw string) (Line, error) {
	parts := strings.SplitN(raw, " ", 4)
	if len(parts) != 4 {
		return Line{}, errors.NewMalformedLine("expected four whitespace-separated fields",
			map[string]interface{}{"line": raw})
	}

	start, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Line{}, errors.NewMalformedLine("start time is not numeric",
			map[string]interface{}{"field": parts[0]})
	}

	end, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Line{}, errors.NewMalformedLine("end time is not numeric",
			map[string]interface{}{"field": parts[1]})
	}

	rest := parts[3]
	idx := strings.LastIndex(rest, SentimentDelimiter)
	if idx < 0 {
		return Line{}, errors.NewMalformedLine("missing sentiment tag",
			map[string]interface{}{"line": raw})
	}

	return Line{
		Interval:  Interval{Start: start, End: end},
		Speaker:   parts[2],
		Text:      rest[:idx],
		Sentiment: strings.TrimSpace(rest[idx+len(SentimentDelimiter):]),
	}, nil
}
