package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shop-dedupe/internal/engine"
	"github.com/sells-group/shop-dedupe/internal/fetcher"
	"github.com/sells-group/shop-dedupe/internal/loader"
	"github.com/sells-group/shop-dedupe/internal/model"
	"github.com/sells-group/shop-dedupe/internal/region"
	"github.com/sells-group/shop-dedupe/internal/report"
)

var (
	detectInput      string
	detectOutput     string
	detectMode       string
	detectThreshold  float64
	detectMinNameLen int
	detectSheet      string
	detectSheetIndex int
	detectColumns    string
	detectTerritory  string
	detectSave       bool
	detectDryRun     bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect suspicious duplicate shops in a master workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if detectMode == "" {
			detectMode = cfg.Detect.Mode
		}
		mode, err := model.ParseMode(detectMode)
		if err != nil {
			return err
		}
		if detectThreshold == 0 {
			detectThreshold = cfg.Detect.ThresholdKm
		}
		if detectMinNameLen == 0 {
			detectMinNameLen = cfg.Detect.MinNameLength
		}
		if err := cfg.Validate("detect"); err != nil {
			return err
		}

		records, stats, err := loadRecords(cmd)
		if err != nil {
			return err
		}

		if detectTerritory != "" {
			territory, err := region.Load(detectTerritory)
			if err != nil {
				return eris.Wrap(err, "load territory")
			}
			var outside int
			records, outside = region.Filter(records, territory)
			zap.L().Info("territory filter applied",
				zap.String("shapefile", detectTerritory),
				zap.Int("outside", outside),
				zap.Int("remaining", len(records)),
			)
		}

		secured, unsecured := engine.Partition(records)
		zap.L().Info("records loaded",
			zap.Int("total_rows", stats.TotalRows),
			zap.Int("loaded", stats.Loaded),
			zap.Int("dropped_coordinates", stats.DroppedCoordinates),
			zap.Int("secured", len(secured)),
			zap.Int("unsecured", len(unsecured)),
		)

		if detectDryRun {
			return nil
		}

		eng := engine.New(engine.Config{
			DistanceThresholdKm: detectThreshold,
			MinNameLength:       detectMinNameLen,
			Mode:                mode,
		})
		result, err := eng.Run(ctx, records)
		if err != nil {
			return eris.Wrap(err, "detection run")
		}
		for _, w := range result.Warnings {
			zap.L().Warn("pass degraded",
				zap.String("pass", string(w.Pass)),
				zap.String("reason", w.Message),
			)
		}

		out := detectOutput
		if out == "" {
			out = report.DefaultFilename(mode, time.Now())
		}
		if err := report.WriteXLSX(out, result.Pairs); err != nil {
			return eris.Wrap(err, "write report")
		}
		report.Preview(cmd.OutOrStdout(), result.Pairs, cfg.Report.Preview)

		status := model.RunStatusComplete
		if len(result.Warnings) > 0 {
			status = model.RunStatusDegraded
		}
		zap.L().Info("detection complete",
			zap.String("mode", string(mode)),
			zap.Int("pairs", len(result.Pairs)),
			zap.String("status", string(status)),
			zap.String("output", out),
		)

		if detectSave {
			st, err := initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "init store")
			}
			defer st.Close() //nolint:errcheck

			run := &model.Run{
				Source:        detectInput,
				Mode:          mode,
				ThresholdKm:   detectThreshold,
				MinNameLength: detectMinNameLen,
				TotalRecords:  len(records),
				Secured:       result.Secured,
				Unsecured:     result.Unsecured,
				Status:        status,
			}
			if err := st.SaveRun(ctx, run, result.Pairs); err != nil {
				return eris.Wrap(err, "save run")
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		return nil
	},
}

// loadRecords fetches the workbook (downloading remote sources), reads
// the selected sheet and parses it into shop records.
func loadRecords(cmd *cobra.Command) ([]model.ShopRecord, *loader.Stats, error) {
	ctx := cmd.Context()

	destDir := cfg.Fetch.TempDir
	if destDir == "" {
		destDir = os.TempDir()
	}
	path, err := fetcher.Fetch(ctx, detectInput, destDir, fetcher.Options{
		Timeout:        time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		RequestsPerSec: cfg.Fetch.RequestsPerSec,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "fetch input")
	}
	if path != detectInput {
		defer os.Remove(path) //nolint:errcheck
	}

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{
		SheetIndex: detectSheetIndex,
		SheetName:  detectSheet,
	})
	if err != nil {
		return nil, nil, err
	}

	var opts loader.Options
	if detectColumns != "" {
		aliases, err := loader.LoadAliases(detectColumns)
		if err != nil {
			return nil, nil, err
		}
		opts.Aliases = aliases
	}

	return loader.Parse(rows, opts)
}

func init() {
	detectCmd.Flags().StringVar(&detectInput, "input", "", "workbook path or http(s)/ftp URL (required)")
	detectCmd.Flags().StringVar(&detectOutput, "output", "", "report path (default duplicate_analysis_<mode>_<date>.xlsx)")
	detectCmd.Flags().StringVar(&detectMode, "mode", "", "comparison passes to run: all, secured, cross, unsecured (default from config)")
	detectCmd.Flags().Float64Var(&detectThreshold, "threshold-km", 0, "distance threshold in km (default from config)")
	detectCmd.Flags().IntVar(&detectMinNameLen, "min-name-length", 0, "minimum normalized name length for the name gate (default from config)")
	detectCmd.Flags().StringVar(&detectSheet, "sheet", "", "sheet name (default first sheet)")
	detectCmd.Flags().IntVar(&detectSheetIndex, "sheet-index", 0, "sheet index when --sheet is not set")
	detectCmd.Flags().StringVar(&detectColumns, "columns", "", "YAML file mapping workbook headers to canonical column names")
	detectCmd.Flags().StringVar(&detectTerritory, "territory", "", "shapefile; only records inside its polygons participate")
	detectCmd.Flags().BoolVar(&detectSave, "save", false, "persist the run and its pairs to the history store")
	detectCmd.Flags().BoolVar(&detectDryRun, "dry-run", false, "load and classify only, skip detection")
	_ = detectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(detectCmd)
}
