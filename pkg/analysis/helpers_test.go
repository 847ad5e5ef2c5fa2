package analysis

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"callinsight/pkg/config"
)

const testPhrasesYAML = `
Greetings:
  - good morning thank you for calling
Disclaimers:
  - this call is recorded for quality purposes
ProhibitedPhrases:
  - damn
  - stupid
ClosingStatements:
  - goodbye and have a wonderful day
PersonalInformationPatterns:
  phone_number: \d{4}-\d{4}
  date_dd_mm_yyyy: \d{2}-\d{2}-\d{4}
  multi_4_digit_patt: \b\d{4}\b.*\b\d{4}\b
SensitiveInformationPatterns:
  credit_card: \b(?:\d{4}[- ]?){3}\d{4}\b
  atm_pin: \b\d{4}\b
  account_password: (?=.*[a-z])(?=.*[A-Z])(?=.*\d).{8,}
`

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testPhrases(t *testing.T) *config.Phrases {
	t.Helper()
	phrases, err := config.ParsePhrases(testLogger(), []byte(testPhrasesYAML))
	require.NoError(t, err)
	return phrases
}

func testRoles() RoleMap {
	return NewRoleMap(config.SpeakerConfig{
		HandlerLabel: "SPEAKER_01",
		ClientLabel:  "SPEAKER_00",
	})
}
