// Package obslog builds the structured logrus logger shared by the
// handheld pipeline and the canesim developer tool, replacing the
// timestamp-prefixed log.Printf wrapper the teacher used.
package obslog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger with a text formatter (or JSON when jsonOutput
// is set, e.g. for machine-ingested field logs) and a level parsed from
// levelName, defaulting to info on an empty or unrecognized value.
func New(levelName string, jsonOutput bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if jsonOutput {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

// WithFlow returns an entry pre-populated with the flow correlation ID
// (spec §4.6's per-packet UUIDv4 stamping), so every log line the pipeline
// emits for one packet can be grepped by flow.
func WithFlow(log *logrus.Logger, flowID string) *logrus.Entry {
	return log.WithField("flow_id", flowID)
}
