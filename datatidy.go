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

package datatidy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rulego/datatidy/config"
	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/fallback"
	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/logger"
	"github.com/rulego/datatidy/planner"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
	"github.com/rulego/datatidy/utils/preview"
)

// DataTidy derives the output columns of a configuration from input tables.
//
// Usage:
//
//	cfg, err := config.Load("pipeline.yaml")
//	dt, err := datatidy.New(cfg)
//	result, err := dt.Process(ctx, input)
//	dt.PrintTable(os.Stdout, result, 20)
type DataTidy struct {
	config    *types.Config
	registry  *functions.FunctionRegistry
	log       logger.Logger
	level     *logger.Level
	supplier  fallback.Supplier
	sinks     []fallback.ErrorSink
	processor *fallback.Processor
}

// New validates cfg and builds an instance for it. The logger defaults to
// standard error at the configured log_level.
func New(cfg *types.Config, options ...Option) (*DataTidy, error) {
	if cfg == nil {
		return nil, types.NewConfigurationError("", "configuration is nil")
	}
	d := &DataTidy{
		config:   cfg,
		registry: functions.NewBuiltinRegistry(),
	}
	for _, option := range options {
		if err := option(d); err != nil {
			return nil, types.WrapError(types.CategoryConfiguration, "", err)
		}
	}
	if d.log == nil {
		level, err := logger.ParseLevel(cfg.GlobalSettings.LogLevel)
		if err != nil {
			return nil, types.NewConfigurationError("", err.Error())
		}
		d.log = logger.NewLogger(level, os.Stderr)
	}
	if d.level != nil {
		d.log.SetLevel(*d.level)
	}

	processor, err := fallback.NewProcessor(cfg,
		fallback.WithInterpreter(expr.NewInterpreter(d.registry)),
		fallback.WithSupplier(d.supplier),
		fallback.WithLogger(d.log),
	)
	if err != nil {
		return nil, err
	}
	d.processor = processor
	return d, nil
}

// NewFromFile loads a YAML configuration and builds an instance for it
func NewFromFile(path string, options ...Option) (*DataTidy, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, options...)
}

// Config returns the configuration the instance runs
func (d *DataTidy) Config() *types.Config {
	return d.config
}

// Plan resolves the execution plan for an input with the given columns
func (d *DataTidy) Plan(inputColumns []string) (*planner.ExecutionPlan, error) {
	return d.processor.Plan(inputColumns)
}

// Process runs the configuration over input. See fallback.Processor.Process
// for how results and errors relate in each processing mode.
func (d *DataTidy) Process(ctx context.Context, input *table.Table) (*fallback.ProcessingResult, error) {
	if input == nil {
		return nil, types.NewInputError("", "input table is nil")
	}
	var sink fallback.ErrorSink
	switch len(d.sinks) {
	case 0:
	case 1:
		sink = d.sinks[0]
	default:
		sink = fallback.MultiSink(d.sinks...)
	}
	return d.processor.Process(ctx, input, sink)
}

// ProcessRecords runs the configuration over row maps. Input columns are
// ordered by name.
func (d *DataTidy) ProcessRecords(ctx context.Context, records []map[string]any) (*fallback.ProcessingResult, error) {
	return d.Process(ctx, table.FromRecords(records))
}

// PrintTable writes the result data as an ASCII grid of at most maxRows rows
func (d *DataTidy) PrintTable(w io.Writer, result *fallback.ProcessingResult, maxRows int) {
	if result == nil || result.Data == nil {
		fmt.Fprintln(w, "(no data)")
		return
	}
	preview.Fprint(w, result.Data, maxRows)
}
