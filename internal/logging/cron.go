package logging

import "github.com/sirupsen/logrus"

// CronLogger routes robfig/cron scheduler messages through logrus
type CronLogger struct {
	Entry *logrus.Entry
}

// NewCronLogger tags scheduler messages with component=scheduler
func NewCronLogger() CronLogger {
	return CronLogger{Entry: Log.WithField("component", "scheduler")}
}

func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Entry.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Entry.WithFields(toFields(keysAndValues)).WithError(err).Error(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
