/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command datatidy derives output columns from a CSV file or SQLite query
// as described by a YAML configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rulego/datatidy"
	"github.com/rulego/datatidy/config"
	"github.com/rulego/datatidy/export"
	"github.com/rulego/datatidy/fallback"
	"github.com/rulego/datatidy/logger"
	"github.com/rulego/datatidy/source"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
)

type options struct {
	configPath string
	inputPath  string
	outputPath string
	reportPath string
	logLevel   string
	preview    int
	showPlan   bool
}

func main() {
	opts := parseFlags()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts)
	stop()
	os.Exit(code)
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML configuration file (required)")
	flag.StringVar(&o.inputPath, "input", "", "CSV input file, overrides the configured input")
	flag.StringVar(&o.outputPath, "output", "", "output file; .arrow or .ipc writes Arrow IPC, anything else CSV")
	flag.StringVar(&o.reportPath, "report", "", "write the JSON error report to this file")
	flag.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	flag.IntVar(&o.preview, "preview", 10, "rows to print after processing, 0 to disable")
	flag.BoolVar(&o.showPlan, "plan", false, "print the execution plan and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `datatidy - declarative column derivation

Usage:
  datatidy -config pipeline.yaml [-input data.csv] [-output out.csv] [-report report.json]

Options:
`)
		flag.PrintDefaults()
	}
	flag.Parse()
	if o.configPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	return o
}

func run(ctx context.Context, o options) int {
	var dtOpts []datatidy.Option
	if o.logLevel != "" {
		level, err := logger.ParseLevel(o.logLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 2
		}
		dtOpts = append(dtOpts, datatidy.WithLogLevel(level))
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	input, err := readInput(ctx, cfg, o.inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if supplier := source.Supplier(cfg); supplier != nil && o.inputPath == "" {
		dtOpts = append(dtOpts, datatidy.WithFallbackSupplier(supplier))
	}

	dt, err := datatidy.New(cfg, dtOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if o.showPlan {
		plan, err := dt.Plan(input.Columns())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Println(plan.Explain())
		return 0
	}

	result, procErr := dt.Process(ctx, input)
	if o.reportPath != "" {
		if err := result.ExportReport(o.reportPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	printSummary(result)
	if procErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", procErr)
		return 1
	}

	if o.preview > 0 {
		dt.PrintTable(os.Stdout, result, o.preview)
	}
	if o.outputPath != "" && result.Data != nil {
		if err := writeOutput(o.outputPath, result.Data); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
	}
	if !result.Success {
		return 3
	}
	return 0
}

func readInput(ctx context.Context, cfg *types.Config, path string) (*table.Table, error) {
	if path != "" {
		return source.ReadCSVFile(path)
	}
	if cfg.Input == nil {
		return nil, types.NewInputError("", "no input: set -input or the input section of the configuration")
	}
	return source.Read(ctx, cfg.Input)
}

func writeOutput(path string, t *table.Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".arrow", ".ipc":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := export.WriteArrowIPC(f, t, nil); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return export.WriteCSVFile(path, t)
	}
}

func printSummary(r *fallback.ProcessingResult) {
	fmt.Fprintf(os.Stderr, "run %s [%s]: success=%t successful=%d failed=%d skipped=%d fallback=%t (%s)\n",
		r.RunID, r.Mode, r.Success, len(r.SuccessfulColumns), len(r.FailedColumns),
		len(r.SkippedColumns), r.FallbackUsed, r.Duration)
	for _, rec := range r.Errors {
		fmt.Fprintf(os.Stderr, "  %s [%s] %s\n", rec.Column, rec.Category, rec.Message)
	}
}
