// cmd/recordsexport/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"redcap-client/internal/common/config"
	"redcap-client/internal/common/logger"
	"redcap-client/internal/common/observability"
	"redcap-client/internal/redcap"
	"redcap-client/internal/records"
)

type exportDocument struct {
	Records records.RecordsTree `json:"records"`
	Errors  records.ErrorReport `json:"errors"`
}

func main() {
	outPath := flag.String("out", "-", "output path for the export document (\"-\" for stdout)")
	rawSelectors := flag.Bool("raw-selectors", false, "keep raw choice codes instead of decoded labels")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()
	log := logger.NewZapAdapter(zlog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zlog.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	client := redcap.NewClient(
		cfg.REDCap.APIURL,
		cfg.REDCap.APIToken,
		time.Duration(cfg.REDCap.Timeout)*time.Millisecond,
		cfg.REDCap.MaxRetries,
		log,
	)

	var connector records.StudyConnector = client
	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Address,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		connector = redcap.NewCachedClient(client, rdb, cfg.Cache.GetTTL(), log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := records.NewBuilder(connector, log, records.BuildOptions{
		Type:             redcap.ExportType(cfg.Fetch.Type),
		RawSelectors:     *rawSelectors,
		SurveyFields:     cfg.Fetch.SurveyFields,
		DataAccessGroups: cfg.Fetch.DataAccessGroups,
	})

	start := time.Now()
	tree, report, err := builder.BuildRecordsTree(ctx)
	if err != nil {
		obs.RecordBuild(ctx, "failure")
		obs.RecordBuildDuration(ctx, time.Since(start), "failure")
		log.Error("records tree build failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	obs.RecordBuild(ctx, "success")
	obs.RecordBuildDuration(ctx, time.Since(start), "success")

	if err := writeDocument(*outPath, exportDocument{Records: tree, Errors: report}); err != nil {
		log.Error("failed to write export", map[string]interface{}{"error": err, "path": *outPath})
		os.Exit(1)
	}
}

func writeDocument(path string, doc exportDocument) error {
	out := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
