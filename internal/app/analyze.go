package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"bill-advisor/internal/analysis"
	"bill-advisor/internal/billing"
)

// Analyze runs one bill through the engines and writes the result document.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	rec, err := loadRecord(opts.File, opts.Sample)
	if err != nil {
		return err
	}

	cfg := *a.Config
	cfg.Analysis.Persist = opts.Save

	comps, err := a.build(ctx, &cfg, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	if opts.Save && comps.store == nil {
		return errors.New("database not configured; cannot save analysis")
	}

	result, err := comps.service.Analyze(ctx, rec)
	if err != nil {
		return err
	}
	return a.writeResult(result, opts)
}

func (a *App) writeResult(result *analysis.Result, opts AnalyzeOptions) error {
	var out io.Writer = os.Stdout
	if opts.OutPath != "" && opts.OutPath != "-" {
		if err := ensureDir(opts.OutPath); err != nil {
			return err
		}
		file, err := os.Create(opts.OutPath)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if opts.CSVPath != "" {
		if err := writeResultCSV(opts.CSVPath, result); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeBreakdownPNG(opts.PNGPath, result); err != nil {
			return err
		}
	}
	if len(result.Failures) > 0 {
		a.Logger.Warn().Int("failures", len(result.Failures)).Msg("analysis completed with partial data")
	}
	return nil
}

// loadRecord reads a bill from path ("-" for stdin) or picks a built-in sample.
func loadRecord(path, sample string) (billing.Record, error) {
	if sample != "" {
		samples := billing.SampleRecords()
		rec, ok := samples[sample]
		if !ok {
			names := make([]string, 0, len(samples))
			for name := range samples {
				names = append(names, name)
			}
			sort.Strings(names)
			return billing.Record{}, fmt.Errorf("unknown sample %q (available: %s)", sample, strings.Join(names, ", "))
		}
		return rec, nil
	}

	switch path {
	case "":
		return billing.Record{}, errors.New("either --file or --sample must be provided")
	case "-":
		return billing.Decode(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return billing.Record{}, fmt.Errorf("open billing record: %w", err)
	}
	defer file.Close()
	return billing.Decode(file)
}
