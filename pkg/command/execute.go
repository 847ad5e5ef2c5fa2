package command

import (
	"fmt"
	"strings"

	"callinsight/pkg/analysis"
	"callinsight/pkg/errors"
)

// Compliance thresholds applied by the sign checks.
const (
	talkTimeThresholdPercent = 70.0
	speechSpeedThresholdWPS  = 2.5
)

// Executor runs parsed commands against one structured conversation.
type Executor struct {
	Records    []analysis.ConversationRecord
	Attributes analysis.AttributeSummary
	Sentiments analysis.SentimentSummary
}

// NewExecutor wraps the results of a structured conversation.
func NewExecutor(records []analysis.ConversationRecord, attrs analysis.AttributeSummary, sentiments analysis.SentimentSummary) *Executor {
	return &Executor{Records: records, Attributes: attrs, Sentiments: sentiments}
}

// Execute renders the text report for one command.
func (e *Executor) Execute(cmd Command) (string, error) {
	switch c := cmd.(type) {
	case ShowSentimentText:
		return e.sentimentText(c), nil
	case CountMessage:
		return e.countMessage(c), nil
	case DialogInstance:
		return e.dialogInstance(c), nil
	case TimeSplit:
		return e.timeSplit(c), nil
	case ConversationSpeed:
		return e.conversationSpeed(c), nil
	case AnalyzeSigns:
		return e.analyzeSigns(c), nil
	}
	return "", errors.NewUnknownCommand(fmt.Sprintf("%T", cmd))
}

func (e *Executor) sentimentText(c ShowSentimentText) string {
	counts, ok := e.Sentiments.Speaker(c.Speaker)
	if !ok {
		return "speaker not found in data."
	}

	total := counts.Total()
	if total == 0 {
		return fmt.Sprintf("%s has no sentiment data available.", c.Speaker)
	}

	if c.SentimentType == "all" {
		lines := []string{fmt.Sprintf("%s sentiment analysis:", c.Speaker)}
		for _, label := range []string{analysis.SentimentPositive, analysis.SentimentNeutral, analysis.SentimentNegative} {
			count := counts.Count(label)
			percentage := float64(count) / float64(total) * 100
			lines = append(lines, fmt.Sprintf("  - %s: %d (%.2f%%)", label, count, percentage))
		}
		return strings.Join(lines, "\n")
	}

	count := counts.Count(c.SentimentType)
	percentage := float64(count) / float64(total) * 100
	return fmt.Sprintf("%s - %s: %d (%.2f%%)", c.Speaker, c.SentimentType, count, percentage)
}

func (e *Executor) countMessage(c CountMessage) string {
	switch c.CountType {
	case "greeting":
		return fmt.Sprintf("A total of %d greetings found", e.Attributes.TotalGreetings)
	case "disclaimer":
		return fmt.Sprintf("A total of %d disclaimers found", e.Attributes.TotalDisclaimers)
	case "closure":
		return fmt.Sprintf("A total of %d closures found", e.Attributes.TotalClosures)
	case "pii":
		return fmt.Sprintf("A total of %d personal information infringements found", e.Attributes.TotalPII)
	}
	return "I did not understand what you are trying to fetch. Enter correct guideline type."
}

func (e *Executor) dialogInstance(c DialogInstance) string {
	categoryFor := map[string]string{
		"greeting":   analysis.CategoryGreetings,
		"disclaimer": analysis.CategoryDisclaims,
		"closure":    analysis.CategoryClosing,
	}

	lines := []string{"Following instances were found:"}
	for _, rec := range e.Records {
		entry := fmt.Sprintf("  - [%.2f - %.2f] : %s", rec.Start, rec.End, rec.Text)

		switch {
		case categoryFor[c.DialogType] != "":
			if containsString(rec.RequiredPhraseCategories, categoryFor[c.DialogType]) {
				lines = append(lines, fmt.Sprintf("%s [%s %s]", entry, roleTitle(rec.Role), c.DialogType))
			}
		case c.DialogType == "prohibited_words" && len(rec.ProhibitedWords) > 0:
			lines = append(lines, fmt.Sprintf("%s [%s used prohibited words]", entry, roleTitle(rec.Role)))
		case c.DialogType == "pii" && len(rec.PIICategories) > 0:
			lines = append(lines, fmt.Sprintf("%s [%s gave personal information]", entry, roleTitle(rec.Role)))
		}
	}

	if len(lines) == 1 {
		return "No such instances found in the call"
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) timeSplit(c TimeSplit) string {
	handler := e.Attributes.HandlerTalkTime
	client := e.Attributes.ClientTalkTime
	total := handler + client

	switch c.Speaker {
	case "handler":
		return fmt.Sprintf("handler talked for %.2f seconds of the total %.2f seconds of talk time", handler, total)
	case "client":
		return fmt.Sprintf("client talked for %.2f seconds of the total %.2f seconds of talk time", client, total)
	}
	return fmt.Sprintf("talk time split: handler %.2f seconds, client %.2f seconds (total %.2f seconds)", handler, client, total)
}

func (e *Executor) conversationSpeed(c ConversationSpeed) string {
	handlerSpeed := safeRate(e.Attributes.HandlerWords, e.Attributes.HandlerTalkTime)
	clientSpeed := safeRate(e.Attributes.ClientWords, e.Attributes.ClientTalkTime)

	switch c.Speaker {
	case "handler":
		return fmt.Sprintf("handler had an avg conversation speed of %.2f words/sec (threshold: %.1f words/sec)", handlerSpeed, speechSpeedThresholdWPS)
	case "client":
		return fmt.Sprintf("client had an avg conversation speed of %.2f words/sec (threshold: %.1f words/sec)", clientSpeed, speechSpeedThresholdWPS)
	}
	return fmt.Sprintf("conversation speed: handler %.2f words/sec, client %.2f words/sec", handlerSpeed, clientSpeed)
}

func (e *Executor) analyzeSigns(c AnalyzeSigns) string {
	goodSigns := []string{"Good signs observed are:"}
	badSigns := []string{"Bad signs observed are:"}

	for _, check := range []func() (bool, string){
		e.checkTalkTime,
		e.checkSpeed,
		e.checkGreetings,
		e.checkDisclaimers,
		e.checkClosures,
		e.checkPII,
		e.checkProfanity,
	} {
		good, message := check()
		if good {
			goodSigns = append(goodSigns, "    "+message)
		} else {
			badSigns = append(badSigns, "    "+message)
		}
	}

	switch c.SignType {
	case "good_signs":
		if len(goodSigns) == 1 {
			return "no good signs detected."
		}
		return strings.Join(goodSigns, "\n")
	case "bad_signs":
		if len(badSigns) == 1 {
			return "no bad signs detected."
		}
		return strings.Join(badSigns, "\n")
	}
	return strings.Join(goodSigns, "\n") + "\n\n" + strings.Join(badSigns, "\n")
}

func (e *Executor) checkTalkTime() (bool, string) {
	total := e.Attributes.HandlerTalkTime + e.Attributes.ClientTalkTime
	if total == 0 {
		return true, "Handler had 0 total talk time (no data)"
	}
	percent := e.Attributes.HandlerTalkTime / total * 100
	if percent > talkTimeThresholdPercent {
		return false, fmt.Sprintf("Handler dominated the conversation duration, with a %.2f%% talk time.", percent)
	}
	return true, fmt.Sprintf("Handler was concise with time, using %.2f%% of the talk time.", percent)
}

func (e *Executor) checkSpeed() (bool, string) {
	if e.Attributes.HandlerTalkTime == 0 {
		return false, "Handler had 0 talk time, unable to compute conversation speed."
	}
	speed := safeRate(e.Attributes.HandlerWords, e.Attributes.HandlerTalkTime)
	if speed > speechSpeedThresholdWPS {
		return false, fmt.Sprintf("Handler's speed was above threshold (%.1f wps, observed: %.2f)", speechSpeedThresholdWPS, speed)
	}
	return true, fmt.Sprintf("Handler's speed was below threshold (%.1f wps, observed: %.2f)", speechSpeedThresholdWPS, speed)
}

func (e *Executor) checkGreetings() (bool, string) {
	if e.Attributes.TotalGreetings > 0 {
		return true, "Greetings were included."
	}
	return false, "Greetings were missing."
}

func (e *Executor) checkDisclaimers() (bool, string) {
	if e.Attributes.TotalDisclaimers > 0 {
		return true, "Disclaimers were present."
	}
	return false, "Disclaimers were missing."
}

func (e *Executor) checkClosures() (bool, string) {
	if e.Attributes.TotalClosures > 0 {
		return true, "Closures were handled."
	}
	return false, "Closures were missing."
}

func (e *Executor) checkPII() (bool, string) {
	if e.Attributes.TotalPII > 0 {
		return false, "PII leak was detected (client disclosed account/PIN/date information)"
	}
	return true, "No PII leaked."
}

func (e *Executor) checkProfanity() (bool, string) {
	if e.Attributes.TotalProhibitedWords > 0 {
		return false, "Prohibited words were used in the call."
	}
	return true, "No prohibited words used."
}

func roleTitle(role analysis.Role) string {
	switch role {
	case analysis.RoleHandler:
		return "Handler"
	case analysis.RoleClient:
		return "Client"
	}
	return "Speaker"
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func safeRate(words int, seconds float64) float64 {
	if seconds == 0 {
		return 0
	}
	return float64(words) / seconds
}
