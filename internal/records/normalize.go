package records

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"redcap-client/internal/redcap"
)

// Tuple is one canonical observation: a single field value located by event,
// instrument, subject, and instance. Value holds the raw exported code until
// validation decodes it.
type Tuple struct {
	Event    string
	Form     string
	Subject  string
	Instance string
	Field    string
	Value    string
}

// stringValue renders one exported cell as a string. JSON numbers decode as
// float64; everything downstream works on strings, so coercion happens here
// and nowhere else.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// instanceString canonicalizes the repeat-instance marker. The server sends
// a number for the first instance, a numeral string for later ones, an empty
// string, or nothing at all; absent and empty both mean instance "1".
func instanceString(v interface{}) string {
	s := stringValue(v)
	if s == "" {
		return "1"
	}
	return s
}

// splitCheckboxField splits a "<base>___<option>" column name. The split is
// on the last "___" so base names may themselves contain underscores.
func splitCheckboxField(field string) (base, option string, ok bool) {
	idx := strings.LastIndex(field, "___")
	if idx <= 0 || idx+3 >= len(field) {
		return "", "", false
	}
	return field[:idx], field[idx+3:], true
}

// normalizeRow turns one raw row into its subject plus zero or more candidate
// tuples. The subject is reported even when no tuple survives, since the
// completion backfill must cover every subject the dataset mentions.
func normalizeRow(meta *Metadata, mode redcap.ExportType, row redcap.Record) (string, []Tuple) {
	event := stringValue(row["redcap_event_name"])
	instance := instanceString(row["redcap_repeat_instance"])

	// Only populated for repeating instruments; everything else resolves its
	// instrument through the field map.
	repeatForm := stringValue(row["redcap_repeat_instrument"])

	if mode == redcap.ExportEAV {
		subject := stringValue(row["record"])
		field := stringValue(row["field_name"])
		value := stringValue(row["value"])

		form := repeatForm
		if form == "" {
			form = meta.FieldForms[field]
		}
		return subject, []Tuple{{
			Event:    event,
			Form:     form,
			Subject:  subject,
			Instance: instance,
			Field:    field,
			Value:    value,
		}}
	}

	subject := stringValue(row[meta.RecordIDField])

	keys := make([]string, 0, len(row))
	for key := range row {
		switch key {
		case meta.RecordIDField, "redcap_event_name", "redcap_repeat_instance", "redcap_repeat_instrument":
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var tuples []Tuple
	for _, field := range keys {
		value := stringValue(row[field])

		form := repeatForm
		if form == "" {
			form = meta.FieldForms[field]
		}

		if base, option, ok := splitCheckboxField(field); ok {
			if meta.FieldTypes[base] == FieldTypeCheckbox {
				if value == "" || value == "0" {
					continue // option not selected, not data at all
				}
				field = base
				value = option
				form = meta.FieldForms[base]
			}
		}

		// Empty values for instruments outside this event are columns the
		// server includes defensively, not data; real inconsistencies carry
		// values and fall through to the validator.
		if value == "" && !meta.EventForms[event][form] {
			continue
		}

		tuples = append(tuples, Tuple{
			Event:    event,
			Form:     form,
			Subject:  subject,
			Instance: instance,
			Field:    field,
			Value:    value,
		})
	}
	return subject, tuples
}
