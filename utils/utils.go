package utils

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// RequestLog accumulates the steps of one API call and emits them as a
// single log entry when Flush is called (usually deferred by the handler).
type RequestLog struct {
	api     string
	builder strings.Builder
	fields  logrus.Fields
	failed  bool
}

func NewRequestLog(api string) *RequestLog {
	return &RequestLog{api: api, fields: logrus.Fields{}}
}

// Add records a step.
func (l *RequestLog) Add(step string) {
	if l == nil {
		return
	}
	l.builder.WriteString(step)
	l.builder.WriteString("; ")
}

// Fail records a step and marks the call as failed.
func (l *RequestLog) Fail(step string) {
	if l == nil {
		return
	}
	l.failed = true
	l.Add(step)
}

// WithField attaches a structured field to the final entry.
func (l *RequestLog) WithField(key string, value interface{}) *RequestLog {
	if l != nil {
		l.fields[key] = value
	}
	return l
}

func (l *RequestLog) String() string {
	return strings.TrimSuffix(l.builder.String(), "; ")
}

func (l *RequestLog) Flush() {
	entry := logrus.WithFields(l.fields).WithField("api", l.api)
	if l.failed {
		entry.Warn(l.String())
		return
	}
	entry.Info(l.String())
}
