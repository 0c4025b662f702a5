package redcap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"redcap-client/internal/common/validation"
)

// DataDictionary exports the instrument definition information. The payload
// is schema-checked before decoding since the whole tree build keys off its
// shape and ordering.
func (c *Client) DataDictionary(ctx context.Context) ([]FieldDefinition, error) {
	body, err := c.call(ctx, "metadata", nil)
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata response: %w", err)
	}
	if err := validation.ValidateDataDictionary(raw); err != nil {
		return nil, fmt.Errorf("data dictionary rejected: %w", err)
	}

	var defs []FieldDefinition
	if err := json.Unmarshal(body, &defs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata response: %w", err)
	}
	return defs, nil
}

// SetDataDictionary imports instrument definitions and returns the number of
// fields imported.
func (c *Client) SetDataDictionary(ctx context.Context, defs []FieldDefinition) (int, error) {
	data, err := jsonParam(defs)
	if err != nil {
		return 0, err
	}
	params := url.Values{}
	params.Set("data", data)

	var count int
	if err := c.callJSON(ctx, "metadata", params, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// InstrumentEventMappings exports the instrument-to-event mapping list.
func (c *Client) InstrumentEventMappings(ctx context.Context) ([]EventMapping, error) {
	body, err := c.call(ctx, "formEventMapping", nil)
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal formEventMapping response: %w", err)
	}
	if err := validation.ValidateEventMappings(raw); err != nil {
		return nil, fmt.Errorf("event mappings rejected: %w", err)
	}

	var mappings []EventMapping
	if err := json.Unmarshal(body, &mappings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal formEventMapping response: %w", err)
	}
	return mappings, nil
}

// SetInstrumentEventMappings imports instrument-to-event mappings.
func (c *Client) SetInstrumentEventMappings(ctx context.Context, mappings []EventMapping) (int, error) {
	data, err := jsonParam(mappings)
	if err != nil {
		return 0, err
	}
	params := url.Values{}
	params.Set("data", data)

	var count int
	if err := c.callJSON(ctx, "formEventMapping", params, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Arms exports arm numbers and names.
func (c *Client) Arms(ctx context.Context) ([]Arm, error) {
	var arms []Arm
	if err := c.callJSON(ctx, "arm", nil, &arms); err != nil {
		return nil, err
	}
	return arms, nil
}

// SetArms imports or renames arms. With deleteAllFirst set, existing arms are
// erased before the import.
func (c *Client) SetArms(ctx context.Context, arms []Arm, deleteAllFirst bool) (int, error) {
	data, err := jsonParam(arms)
	if err != nil {
		return 0, err
	}
	params := url.Values{}
	params.Set("data", data)
	params.Set("action", "import")
	if deleteAllFirst {
		params.Set("override", "1")
	} else {
		params.Set("override", "0")
	}

	var count int
	if err := c.callJSON(ctx, "arm", params, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Events exports event details (names, numbers, labels, offsets).
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.callJSON(ctx, "event", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// SetEvents imports event details.
func (c *Client) SetEvents(ctx context.Context, events []Event, deleteAllFirst bool) (int, error) {
	data, err := jsonParam(events)
	if err != nil {
		return 0, err
	}
	params := url.Values{}
	params.Set("data", data)
	params.Set("action", "import")
	if deleteAllFirst {
		params.Set("override", "1")
	} else {
		params.Set("override", "0")
	}

	var count int
	if err := c.callJSON(ctx, "event", params, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Instruments exports instrument internal names with their display labels.
func (c *Client) Instruments(ctx context.Context) ([]Instrument, error) {
	var instruments []Instrument
	if err := c.callJSON(ctx, "instrument", nil, &instruments); err != nil {
		return nil, err
	}
	return instruments, nil
}

// ExportFieldNames exports the mapping of fields and selected values to their
// exported column names.
func (c *Client) ExportFieldNames(ctx context.Context) ([]ExportFieldName, error) {
	var names []ExportFieldName
	if err := c.callJSON(ctx, "exportFieldNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// RepeatingFormsEvents exports the repeating instrument/event declarations.
func (c *Client) RepeatingFormsEvents(ctx context.Context) ([]RepeatingFormEvent, error) {
	var rfe []RepeatingFormEvent
	if err := c.callJSON(ctx, "repeatingFormsEvents", nil, &rfe); err != nil {
		return nil, err
	}
	return rfe, nil
}

// SetRepeatingFormsEvents imports repeating instrument/event declarations.
func (c *Client) SetRepeatingFormsEvents(ctx context.Context, rfe []RepeatingFormEvent) error {
	data, err := jsonParam(rfe)
	if err != nil {
		return err
	}
	params := url.Values{}
	params.Set("data", data)

	_, err = c.call(ctx, "repeatingFormsEvents", params)
	return err
}
