package records

import (
	"redcap-client/internal/common/metrics"
)

// ErrorCategory labels one class of data-consistency rejection. Category
// strings are part of the result surface: downstream consumers group on them
// to flag metadata/data drift for human review.
type ErrorCategory string

const (
	// CategoryChoiceValueMissing marks a choice value matching neither a
	// selector code nor a label.
	CategoryChoiceValueMissing ErrorCategory = "choice value is missing"

	// CategoryChoiceValueAsText marks a choice value that is verbatim one of
	// the display labels: the server already decoded it. Still rejected, but
	// kept distinct so reviewers can tell the two drifts apart.
	CategoryChoiceValueAsText ErrorCategory = "choice value as text"

	CategoryEventMissing   ErrorCategory = "event is missing"
	CategoryFieldNotInForm ErrorCategory = "field not in a form"
	CategoryFormNotInEvent ErrorCategory = "form not in given event"
)

// RejectedTuple carries the full context of one excluded observation. Value
// is the original raw export value, never the decoded one.
type RejectedTuple struct {
	Event   string `json:"event"`
	Subject string `json:"subject"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Form    string `json:"form"`
}

// ErrorReport accumulates rejections by category in encounter order. It is
// owned by one build and never fails the build.
type ErrorReport map[ErrorCategory][]RejectedTuple

func (r ErrorReport) add(category ErrorCategory, t Tuple) {
	r[category] = append(r[category], RejectedTuple{
		Event:   t.Event,
		Subject: t.Subject,
		Field:   t.Field,
		Value:   t.Value,
		Form:    t.Form,
	})
	metrics.TuplesRejected.WithLabelValues(string(category)).Inc()
}

// Total returns the number of rejected tuples across all categories.
func (r ErrorReport) Total() int {
	n := 0
	for _, rejected := range r {
		n += len(rejected)
	}
	return n
}

// validateTuple applies the admissibility checks in order, short-circuiting
// on the first failure. Failures are recorded in the report and the tuple is
// dropped. On success the returned value is decoded through the selector map
// (unless rawSelectors keeps codes as-is).
func validateTuple(meta *Metadata, t Tuple, report ErrorReport, rawSelectors bool) (string, bool) {
	mapped := t.Value

	if selector, ok := meta.Selectors[t.Field]; ok && !rawSelectors && t.Value != "" {
		label, known := selector[t.Value]
		if !known {
			if selectorHasLabel(selector, t.Value) {
				report.add(CategoryChoiceValueAsText, t)
			} else {
				report.add(CategoryChoiceValueMissing, t)
			}
			return "", false
		}
		mapped = label
	}

	if _, ok := meta.EventForms[t.Event]; !ok {
		report.add(CategoryEventMissing, t)
		return "", false
	}

	if t.Field != dataAccessGroupField {
		if _, ok := meta.FieldForms[t.Field]; !ok {
			report.add(CategoryFieldNotInForm, t)
			return "", false
		}
	}

	if !meta.EventForms[t.Event][t.Form] {
		report.add(CategoryFormNotInEvent, t)
		return "", false
	}

	return mapped, true
}

func selectorHasLabel(selector map[string]string, value string) bool {
	for _, label := range selector {
		if label == value {
			return true
		}
	}
	return false
}
