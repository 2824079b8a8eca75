package errtrack

import "request-correlator/internal/metrics"

const (
	// DefaultDisallowedHostLogger is the logger rejected Host headers are reported on.
	DefaultDisallowedHostLogger = "security.DisallowedHost"
	// DisallowedHostFingerprint groups all disallowed host events together.
	DisallowedHostFingerprint = "disallowed-host"
)

// BeforeSend inspects an event before it is queued. Returning nil drops the
// event; returning a (possibly modified) event keeps it.
type BeforeSend func(event *Event, hint Hint) *Event

// FingerprintDisallowedHost groups every event logged on loggerName under a
// single fingerprint, regardless of the offending host in its message.
func FingerprintDisallowedHost(loggerName string) BeforeSend {
	return func(event *Event, hint Hint) *Event {
		if event == nil || hint.LogRecord == nil || loggerName == "" {
			return event
		}
		if hint.LogRecord.Name == loggerName {
			event.Fingerprint = []string{DisallowedHostFingerprint}
			metrics.ErrorEvents.WithLabelValues(metrics.OutcomeFingerprinted).Inc()
		}
		return event
	}
}

// Chain runs rules in order and stops at the first one that drops the
// event. A rule that panics is skipped.
func Chain(rules ...BeforeSend) BeforeSend {
	return func(event *Event, hint Hint) *Event {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			event = apply(rule, event, hint)
			if event == nil {
				return nil
			}
		}
		return event
	}
}

func apply(rule BeforeSend, event *Event, hint Hint) (out *Event) {
	defer func() {
		if recover() != nil {
			out = event
		}
	}()
	return rule(event, hint)
}
