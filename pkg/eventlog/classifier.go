package eventlog

import (
	"github.com/logflow/procmine/internal/model"
	"github.com/logflow/procmine/pkg/errors"
)

// Classifier maps a raw event to its activity label.
type Classifier func(e *model.Event) string

// NameClassifier uses the event name (concept:name) as activity label.
func NameClassifier(e *model.Event) string {
	return string(e.Activity)
}

// NameLifecycleClassifier combines name and lifecycle transition, e.g.
// "register+complete". Events without a transition count as complete.
func NameLifecycleClassifier(e *model.Event) string {
	if len(e.Lifecycle) == 0 {
		return string(e.Activity) + "+complete"
	}
	return string(e.Activity) + "+" + string(e.Lifecycle)
}

// NameResourceClassifier combines name and resource, e.g. "approve@ann".
func NameResourceClassifier(e *model.Event) string {
	if len(e.Resource) == 0 {
		return string(e.Activity)
	}
	return string(e.Activity) + "@" + string(e.Resource)
}

// ClassifierByName resolves the classifier names accepted in configuration.
func ClassifierByName(name string) (Classifier, error) {
	switch name {
	case "", "name", "concept:name":
		return NameClassifier, nil
	case "name+lifecycle", "lifecycle":
		return NameLifecycleClassifier, nil
	case "name+resource", "resource":
		return NameResourceClassifier, nil
	default:
		return nil, errors.New(errors.CodeInvalidConfig, "unknown event classifier").
			WithContext("classifier", name)
	}
}
