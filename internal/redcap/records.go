package redcap

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"redcap-client/internal/common/metrics"
)

// Records exports record rows for the study without restructuring them.
func (c *Client) Records(ctx context.Context, opts RecordOptions) ([]Record, error) {
	exportType := opts.Type
	if exportType == "" {
		exportType = ExportFlat
	}

	params := url.Values{}
	params.Set("type", string(exportType))
	params.Set("exportSurveyFields", boolParam(opts.SurveyFields))
	params.Set("exportDataAccessGroups", boolParam(opts.DataAccessGroups))
	setRawOrLabel(params, opts)
	indexedParam(params, "records", opts.Records)
	indexedParam(params, "fields", opts.Fields)

	var records []Record
	if err := c.callJSON(ctx, "record", params, &records); err != nil {
		return nil, err
	}

	metrics.RecordsFetched.WithLabelValues(string(exportType)).Add(float64(len(records)))
	return records, nil
}

// ImportRecords imports record rows and returns the number of records
// created or updated. With autoNumber set, record ids are assigned by the
// server.
func (c *Client) ImportRecords(ctx context.Context, records []Record, opts ImportOptions) (int, error) {
	exportType := opts.Type
	if exportType == "" {
		exportType = ExportEAV
	}

	data, err := jsonParam(records)
	if err != nil {
		return 0, err
	}

	params := url.Values{}
	params.Set("type", string(exportType))
	params.Set("data", data)
	if opts.Overwrite {
		params.Set("overwriteBehavior", "overwrite")
	} else {
		params.Set("overwriteBehavior", "normal")
	}
	params.Set("forceAutoNumber", boolParam(opts.AutoNumber))
	if opts.AutoNumber {
		params.Set("returnContent", "auto_ids")
	}

	var result struct {
		Count int `json:"count"`
	}
	if err := c.callJSON(ctx, "record", params, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// DeleteRecords deletes the named records, optionally restricted to one arm,
// and returns the number of records deleted.
func (c *Client) DeleteRecords(ctx context.Context, recordNames []string, arm string) (int, error) {
	params := url.Values{}
	params.Set("action", "delete")
	indexedParam(params, "records", recordNames)
	if arm != "" {
		params.Set("arm", arm)
	}

	var count int
	if err := c.callJSON(ctx, "record", params, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// ReportRecords exports the rows of a saved report.
func (c *Client) ReportRecords(ctx context.Context, reportID string, opts RecordOptions) ([]Record, error) {
	params := url.Values{}
	params.Set("report_id", reportID)
	setRawOrLabel(params, opts)

	var records []Record
	if err := c.callJSON(ctx, "report", params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Subjects enumerates record subject ids in first-seen order. The identifier
// field is whichever field the data dictionary declares first.
func (c *Client) Subjects(ctx context.Context) ([]string, error) {
	defs, err := c.DataDictionary(ctx)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}
	idField := defs[0].FieldName

	records, err := c.Records(ctx, RecordOptions{Fields: []string{idField}})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(records))
	subjects := make([]string, 0, len(records))
	for _, r := range records {
		id := fieldString(r[idField])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		subjects = append(subjects, id)
	}

	c.logger.Info("enumerated subjects", map[string]interface{}{
		"count":   len(subjects),
		"idField": idField,
	})
	return subjects, nil
}

func setRawOrLabel(params url.Values, opts RecordOptions) {
	if opts.Labels {
		params.Set("rawOrLabel", "label")
	} else {
		params.Set("rawOrLabel", "raw")
	}
	if opts.LabelHeaders {
		params.Set("rawOrLabelHeaders", "label")
	} else {
		params.Set("rawOrLabelHeaders", "raw")
	}
	params.Set("exportCheckboxLabel", boolParam(opts.CheckboxLabels))
}

// fieldString renders one exported cell as a string. JSON numbers arrive as
// float64.
func fieldString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return boolParam(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
