// Package records reconstructs a validated, navigable records tree from the
// flat, loosely-typed exports of the REDCap API.
package records

import (
	"context"
	"fmt"
	"time"

	"redcap-client/internal/common/logger"
	"redcap-client/internal/common/metrics"
	"redcap-client/internal/redcap"
)

// StudyConnector is the read surface the tree build consumes. *redcap.Client
// and *redcap.CachedClient both satisfy it.
type StudyConnector interface {
	DataDictionary(ctx context.Context) ([]redcap.FieldDefinition, error)
	InstrumentEventMappings(ctx context.Context) ([]redcap.EventMapping, error)
	Records(ctx context.Context, opts redcap.RecordOptions) ([]redcap.Record, error)
	Subjects(ctx context.Context) ([]string, error)
}

// BuildOptions tunes one records-tree build.
type BuildOptions struct {
	// Type selects flat or EAV retrieval. Defaults to EAV.
	Type redcap.ExportType

	// RawSelectors keeps raw choice codes instead of decoding them to labels.
	// The admissibility checks still run.
	RawSelectors bool

	SurveyFields     bool
	DataAccessGroups bool
}

// Builder assembles records trees. It holds no per-build state; every build
// owns its tree and report exclusively.
type Builder struct {
	connector StudyConnector
	logger    logger.Logger
	opts      BuildOptions
}

func NewBuilder(conn StudyConnector, log logger.Logger, opts BuildOptions) *Builder {
	if opts.Type == "" {
		opts.Type = redcap.ExportEAV
	}
	return &Builder{
		connector: conn,
		logger:    log.WithFields(map[string]interface{}{"component": "records"}),
		opts:      opts,
	}
}

// BuildRecordsTree retrieves all study data and assembles the nested
// event → instrument → subject → instance → field → values structure, dense
// after backfill. Transport failures abort the build; data-consistency
// findings land in the returned report instead.
func (b *Builder) BuildRecordsTree(ctx context.Context) (RecordsTree, ErrorReport, error) {
	start := time.Now()
	defer func() {
		metrics.TreeBuildDuration.Observe(time.Since(start).Seconds())
	}()

	defs, err := b.connector.DataDictionary(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch data dictionary: %w", err)
	}
	mappings, err := b.connector.InstrumentEventMappings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch instrument-event mappings: %w", err)
	}
	meta := ResolveMetadata(defs, mappings)

	subjects, err := b.connector.Subjects(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("enumerate subjects: %w", err)
	}
	b.logger.Info("starting records fetch", map[string]interface{}{
		"subjects": len(subjects),
		"type":     string(b.opts.Type),
	})

	rows, err := fetchAllRecords(ctx, b.connector, subjects, redcap.RecordOptions{
		Type:             b.opts.Type,
		SurveyFields:     b.opts.SurveyFields,
		DataAccessGroups: b.opts.DataAccessGroups,
	}, meta.RecordIDField, b.logger)
	if err != nil {
		return nil, nil, err
	}

	tree := make(RecordsTree)
	report := make(ErrorReport)

	// The backfill must cover subjects that have no data rows at all, so the
	// enumerated population seeds the list; rows can only add to it.
	seenSubjects := make(map[string]bool, len(subjects))
	allSubjects := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if !seenSubjects[s] {
			seenSubjects[s] = true
			allSubjects = append(allSubjects, s)
		}
	}

	for _, row := range rows {
		subject, tuples := normalizeRow(meta, b.opts.Type, row)
		if !seenSubjects[subject] {
			seenSubjects[subject] = true
			allSubjects = append(allSubjects, subject)
		}

		for _, t := range tuples {
			decoded, ok := validateTuple(meta, t, report, b.opts.RawSelectors)
			if !ok {
				continue
			}
			// The identifier field is validated like any other but carries
			// no information beyond the subject key it already became.
			if t.Field == meta.RecordIDField {
				continue
			}
			tree.insert(t, decoded, meta)
		}
	}

	tree.Backfill(meta, allSubjects)

	b.logger.Info("records tree built", map[string]interface{}{
		"rows":     len(rows),
		"subjects": len(allSubjects),
		"rejected": report.Total(),
		"duration": time.Since(start).String(),
	})

	return tree, report, nil
}
