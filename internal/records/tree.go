package records

import (
	"encoding/json"
	"sort"
)

// ValueMode distinguishes the two field semantics at the assembler boundary:
// ordinary fields accumulate every value they receive (duplicate rows for the
// same checkbox option are legitimate), completion-status fields hold exactly
// one value where a later row replaces the earlier one.
type ValueMode int

const (
	MultiValue ValueMode = iota
	SingleValue
)

// FieldValues is the set of decoded values held by one field of one
// instrument instance.
type FieldValues struct {
	mode   ValueMode
	values map[string]struct{}
}

func newFieldValues(mode ValueMode) *FieldValues {
	return &FieldValues{mode: mode, values: make(map[string]struct{})}
}

// Add inserts a value, replacing any previous value in SingleValue mode.
func (f *FieldValues) Add(v string) {
	if f.mode == SingleValue && len(f.values) > 0 {
		f.values = make(map[string]struct{}, 1)
	}
	f.values[v] = struct{}{}
}

func (f *FieldValues) Has(v string) bool {
	_, ok := f.values[v]
	return ok
}

func (f *FieldValues) Len() int {
	return len(f.values)
}

// Values returns the decoded values in sorted order.
func (f *FieldValues) Values() []string {
	out := make([]string, 0, len(f.values))
	for v := range f.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON renders the set as a sorted array.
func (f *FieldValues) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Values())
}

// RecordsTree is the four-level nesting event → instrument → subject →
// instance → field → values. After the completion backfill every mapped
// (event, instrument) pair holds every seen subject, every subject at least
// one instance, and every instance every declared field.
type RecordsTree map[string]EventRecords

// EventRecords maps instrument name to its per-subject data.
type EventRecords map[string]InstrumentRecords

// InstrumentRecords maps subject id to its instances.
type InstrumentRecords map[string]SubjectRecords

// SubjectRecords maps instance id (defaulting "1") to its fields.
type SubjectRecords map[string]InstanceFields

// InstanceFields maps field name to its value set.
type InstanceFields map[string]*FieldValues

// subject returns the instance map for (event, form, subject), creating the
// intermediate levels as needed.
func (t RecordsTree) subject(event, form, subj string) SubjectRecords {
	eventRecords := t[event]
	if eventRecords == nil {
		eventRecords = make(EventRecords)
		t[event] = eventRecords
	}
	instrumentRecords := eventRecords[form]
	if instrumentRecords == nil {
		instrumentRecords = make(InstrumentRecords)
		eventRecords[form] = instrumentRecords
	}
	subjectRecords := instrumentRecords[subj]
	if subjectRecords == nil {
		subjectRecords = make(SubjectRecords)
		instrumentRecords[subj] = subjectRecords
	}
	return subjectRecords
}

// Get returns the fields of one instance, or nil if any level is absent.
func (t RecordsTree) Get(event, form, subject, instance string) InstanceFields {
	return t[event][form][subject][instance]
}

// insert stores one admissible, already-decoded tuple.
func (t RecordsTree) insert(tuple Tuple, decoded string, meta *Metadata) {
	subjectRecords := t.subject(tuple.Event, tuple.Form, tuple.Subject)
	instance := subjectRecords[tuple.Instance]
	if instance == nil {
		instance = make(InstanceFields)
		subjectRecords[tuple.Instance] = instance
	}

	values := instance[tuple.Field]
	if values == nil {
		mode := MultiValue
		if tuple.Field == meta.CompletionField(tuple.Form) {
			mode = SingleValue
		}
		values = newFieldValues(mode)
		instance[tuple.Field] = values
	}
	values.Add(decoded)
}

// Backfill makes the tree dense: every (event, instrument) pair from the
// event map gets an entry for every subject seen anywhere in the dataset,
// with at least one instance, and every instance carries every declared
// field of its instrument. Missing fields default to the empty string except
// the completion field, which defaults to "Incomplete". Running it again is
// a no-op.
func (t RecordsTree) Backfill(meta *Metadata, allSubjects []string) {
	formFields := meta.FormFields()

	for event, forms := range meta.EventForms {
		for form := range forms {
			completion := meta.CompletionField(form)
			for _, subj := range allSubjects {
				subjectRecords := t.subject(event, form, subj)
				if len(subjectRecords) == 0 {
					subjectRecords["1"] = make(InstanceFields)
				}
				for _, instance := range subjectRecords {
					for _, field := range formFields[form] {
						if _, ok := instance[field]; ok {
							continue
						}
						if field == completion {
							values := newFieldValues(SingleValue)
							values.Add("Incomplete")
							instance[field] = values
						} else {
							values := newFieldValues(MultiValue)
							values.Add("")
							instance[field] = values
						}
					}
				}
			}
		}
	}
}
