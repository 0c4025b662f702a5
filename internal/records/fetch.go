package records

import (
	"context"
	"fmt"

	commonerrors "redcap-client/internal/common/errors"
	"redcap-client/internal/common/logger"
	"redcap-client/internal/common/metrics"
	"redcap-client/internal/redcap"
)

// fetchAllRecords retrieves all raw rows for the subject population. The
// server refuses oversized requests unpredictably, so the fetch walks a
// window over the population: a rejection halves the batch size (rounded up)
// and retries the same window, a success advances the window without growing
// the batch back. One request is outstanding at a time; the backoff depends
// on observing each failure before shrinking.
func fetchAllRecords(ctx context.Context, conn StudyConnector, subjects []string, opts redcap.RecordOptions, idField string, log logger.Logger) ([]redcap.Record, error) {
	remaining := subjects
	batchSize := len(remaining)

	var rows []redcap.Record
	for len(remaining) > 0 {
		n := batchSize
		if n > len(remaining) {
			n = len(remaining)
		}
		batch := remaining[:n]

		batchOpts := opts
		batchOpts.Records = batch

		fetched, err := conn.Records(ctx, batchOpts)
		if err != nil {
			if redcap.IsBatchTooLarge(err) {
				if n <= 1 {
					// A single subject is still too large: shrinking cannot
					// converge, so the whole build fails.
					return nil, commonerrors.NewBatchUnderflowError(batch[0], err)
				}
				batchSize = (batchSize + 1) / 2
				metrics.BatchShrinks.Inc()
				log.Warn("batch rejected as too large, shrinking", map[string]interface{}{
					"requested":    n,
					"newBatchSize": batchSize,
				})
				continue
			}
			// Partial rows already fetched are discarded with the error:
			// silent gaps are worse than an explicit failure.
			return nil, fmt.Errorf("record export failed: %w", err)
		}

		rows = append(rows, fetched...)
		remaining = remaining[n:]
	}

	// In EAV form, rows describing the identifier field are not data.
	if opts.Type == redcap.ExportEAV && idField != "" {
		filtered := make([]redcap.Record, 0, len(rows))
		for _, r := range rows {
			if stringValue(r["field_name"]) == idField {
				continue
			}
			filtered = append(filtered, r)
		}
		rows = filtered
	}

	return rows, nil
}
