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

package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rulego/datatidy/dependency"
	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/logger"
	"github.com/rulego/datatidy/planner"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/transform"
	"github.com/rulego/datatidy/types"
)

// Supplier produces the output table in fallback mode, for example by
// querying the source database directly.
type Supplier func(ctx context.Context) (*table.Table, error)

// Processor runs a configuration over input tables under the configured
// processing mode. A Processor holds no per-run state and may be shared by
// concurrent runs.
type Processor struct {
	config      *types.Config
	interpreter *expr.Interpreter
	planner     *planner.Planner
	columns     *transform.Processor
	supplier    Supplier
	log         logger.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithSupplier sets the fallback mode data supplier
func WithSupplier(s Supplier) Option {
	return func(p *Processor) {
		p.supplier = s
	}
}

// WithLogger sets the logger for run progress and column failures
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		p.log = l
	}
}

// WithInterpreter sets the interpreter used for expressions and for
// recognizing function names during dependency analysis
func WithInterpreter(in *expr.Interpreter) Option {
	return func(p *Processor) {
		p.interpreter = in
	}
}

// NewProcessor validates cfg and creates a processor for it
func NewProcessor(cfg *types.Config, opts ...Option) (*Processor, error) {
	if cfg == nil {
		return nil, types.NewConfigurationError("", "configuration is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{config: cfg}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.OrDiscard(p.log)
	if p.interpreter == nil {
		p.interpreter = expr.NewInterpreter(nil)
	}
	p.planner = planner.NewPlanner(dependency.NewAnalyzer(p.interpreter.Registry()))
	p.columns = transform.NewProcessor(p.interpreter, p.log)
	return p, nil
}

// Plan resolves the execution plan for an input with the given columns
func (p *Processor) Plan(inputColumns []string) (*planner.ExecutionPlan, error) {
	return p.planner.Plan(p.config.Output.Columns, inputColumns)
}

// Mode returns the configured processing mode
func (p *Processor) Mode() types.ProcessingMode {
	if m := p.config.GlobalSettings.ProcessingMode; m != "" {
		return m
	}
	return types.ModeStrict
}

// Process runs the configuration over input. Every error record is also
// sent to sink when it is not nil. The result is never nil; err is set when
// the run aborted because planning failed, a column failed in strict mode
// or ctx was cancelled. An aborted run carries the unmodified input as Data
// when return_input_on_failure is enabled and no data otherwise.
func (p *Processor) Process(ctx context.Context, input *table.Table, sink ErrorSink) (*ProcessingResult, error) {
	start := time.Now()
	r := &run{
		Processor: p,
		ctx:       ctx,
		input:     input,
		sink:      sink,
		result: &ProcessingResult{
			RunID:        uuid.NewString(),
			Mode:         p.Mode(),
			StartTime:    start,
			TotalColumns: len(p.config.Output.Columns),
		},
	}
	p.log.Info("run %s: starting %s processing of %d columns over %d rows",
		r.result.RunID, r.result.Mode, r.result.TotalColumns, input.Len())

	var err error
	switch r.result.Mode {
	case types.ModePartial:
		err = r.partial()
	case types.ModeFallback:
		r.fallback()
	default:
		err = r.strict()
	}

	res := r.result
	res.Duration = time.Since(start)
	if err != nil {
		res.Success = false
		res.Data = nil
		if p.config.GlobalSettings.ReturnInputOnFailure {
			res.Data = input.Clone()
		}
		p.log.Error("run %s: failed after %s: %v", res.RunID, res.Duration, err)
		return res, err
	}
	p.log.Info("run %s: finished in %s (success=%t, successful=%d, failed=%d, skipped=%d, fallback=%t)",
		res.RunID, res.Duration, res.Success, len(res.SuccessfulColumns), len(res.FailedColumns),
		len(res.SkippedColumns), res.FallbackUsed)
	return res, nil
}

// run holds the state of one Process call
type run struct {
	*Processor
	ctx    context.Context
	input  *table.Table
	sink   ErrorSink
	result *ProcessingResult
}

func (r *run) record(column string, err error, skipped bool) {
	rec := NewErrorRecord(column, err, skipped)
	r.result.Errors = append(r.result.Errors, rec)
	if r.sink != nil {
		r.sink.Record(rec)
	}
	action := "failed"
	if skipped {
		action = "skipped"
	}
	affected := ""
	if rec.TotalAffectedRows > 0 {
		affected = fmt.Sprintf(" (affecting %d rows, first at indices %v)", rec.TotalAffectedRows, rec.Indices)
	}
	r.log.Warn("%s column '%s': %v%s", action, column, err, affected)
}

// recordRun records an error that does not belong to a single column
func (r *run) recordRun(stage string, err error) {
	rec := NewErrorRecord("", err, false)
	if rec.Stage == "" {
		rec.Stage = stage
	}
	r.result.Errors = append(r.result.Errors, rec)
	if r.sink != nil {
		r.sink.Record(rec)
	}
	r.log.Error("%s: %v", stage, err)
}

func (r *run) plan() (*planner.ExecutionPlan, error) {
	plan, err := r.Plan(r.input.Columns())
	if err != nil {
		r.recordRun("planning", err)
		return nil, err
	}
	r.result.Plan = plan
	r.log.Debug("execution order: %s", plan)
	return plan, nil
}

func (r *run) spec(name string) types.ColumnSpec {
	spec, _ := r.config.Output.Columns.Get(name)
	return spec
}

// processColumn computes one column. A panic is returned as a system_error
// so that one column cannot take down the run.
func (r *run) processColumn(name string, work *table.Table) (values []any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("run %s: column '%s' panicked: %v", r.result.RunID, name, p)
			values = nil
			err = &types.Error{
				Kind:    types.CategorySystem,
				Column:  name,
				Stage:   "processing",
				Message: fmt.Sprintf("panic: %v", p),
			}
		}
	}()
	return r.columns.ProcessColumn(r.spec(name), work)
}

func (r *run) cancelled(remaining []string) error {
	err := r.ctx.Err()
	if err == nil {
		return nil
	}
	r.result.SkippedColumns = append(r.result.SkippedColumns, remaining...)
	r.recordRun("cancelled", err)
	return err
}

// strict aborts on the first column failure
func (r *run) strict() error {
	plan, err := r.plan()
	if err != nil {
		return err
	}
	order := plan.Order()
	work := r.input.Clone()
	for i, name := range order {
		if err := r.cancelled(order[i:]); err != nil {
			return err
		}
		values, err := r.processColumn(name, work)
		if err == nil {
			err = work.Set(name, values)
		}
		if err != nil {
			r.result.FailedColumns = append(r.result.FailedColumns, name)
			r.result.SkippedColumns = append(r.result.SkippedColumns, order[i+1:]...)
			r.record(name, err, false)
			return err
		}
		r.result.SuccessfulColumns = append(r.result.SuccessfulColumns, name)
	}
	out, err := r.assemble(work, plan)
	if err == nil {
		out, err = r.columns.PostProcess(out, r.config.Output)
	}
	if err != nil {
		r.recordRun("post-processing", err)
		return err
	}
	r.result.Data = out
	r.result.Success = true
	return nil
}

// partial records column failures, applies substitutes and escalates when
// the failure rate exceeds the threshold
func (r *run) partial() error {
	plan, err := r.plan()
	if err != nil {
		return err
	}
	gs := r.config.GlobalSettings
	order := plan.Order()
	work := r.input.Clone()
	for i, name := range order {
		if err := r.cancelled(order[i:]); err != nil {
			return err
		}
		values, err := r.processColumn(name, work)
		if err == nil {
			err = work.Set(name, values)
		}
		if err == nil {
			r.result.SuccessfulColumns = append(r.result.SuccessfulColumns, name)
			continue
		}
		r.result.FailedColumns = append(r.result.FailedColumns, name)
		r.record(name, err, true)
		if sub, ok := gs.FallbackTransformations[name]; ok {
			values, serr := Substitute(sub, work)
			if serr == nil {
				serr = work.Set(name, values)
			}
			if serr == nil {
				r.log.Info("applied %s substitute for column '%s'", sub.Type, name)
				continue
			}
			r.log.Warn("substitute for column '%s' not applied: %v", name, serr)
		}
		r.result.SkippedColumns = append(r.result.SkippedColumns, name)
	}

	if total := len(order); total > 0 {
		r.result.FailureRate = float64(len(r.result.FailedColumns)) / float64(total)
	}
	out, err := r.assemble(work, plan)
	if err != nil {
		return err
	}
	if r.result.FailureRate > gs.FailureThreshold && gs.EnableFallback {
		r.log.Warn("fallback activated: failure rate %.1f%% exceeds threshold %.1f%%",
			r.result.FailureRate*100, gs.FailureThreshold*100)
		r.result.FallbackUsed = true
		r.result.Data = out
		return nil
	}
	if processed, perr := r.columns.PostProcess(out, r.config.Output); perr != nil {
		r.recordRun("post-processing", perr)
	} else {
		out = processed
	}
	r.log.Info("partial processing: %d columns successful, %d failed %v",
		len(r.result.SuccessfulColumns), len(r.result.FailedColumns), r.result.FailedColumns)
	r.result.Data = out
	r.result.Success = len(r.result.SuccessfulColumns) > 0
	return nil
}

// fallback uses the supplier or, failing that, copies source columns with
// lenient type coercion. It never fails.
func (r *run) fallback() {
	r.result.FallbackUsed = true
	r.result.Success = true
	r.result.SkippedColumns = r.config.Output.Columns.Names()
	if r.supplier != nil {
		r.log.Warn("fallback activated: fallback mode requested")
		t, err := r.supplier(r.ctx)
		if err == nil && t == nil {
			err = errors.New("fallback supplier returned no data")
		}
		if err == nil {
			r.result.Data = t
			return
		}
		r.recordRun("fallback supplier", err)
	}
	r.result.Data = r.basic()
}

// basic copies each output column's source with lenient coercion. Columns
// whose source is absent are omitted.
func (r *run) basic() *table.Table {
	work := r.input.Clone()
	var outputs []string
	for _, spec := range r.config.Output.Columns {
		if spec.Interim {
			continue
		}
		src, ok := r.input.Column(spec.SourceName())
		if !ok {
			continue
		}
		if err := work.Set(spec.Name, transform.CoerceLenient(src, spec.Type, spec.Format)); err != nil {
			continue
		}
		outputs = append(outputs, spec.Name)
	}
	if r.config.Output.OnlyOutputColumns {
		if out, err := work.Select(outputs...); err == nil {
			return out
		}
	}
	return r.project(work, outputs)
}

// assemble keeps the input columns followed by the final output columns
// present in work, or only the final outputs when configured.
func (r *run) assemble(work *table.Table, plan *planner.ExecutionPlan) (*table.Table, error) {
	var outputs []string
	for _, name := range plan.Final() {
		if work.Has(name) {
			outputs = append(outputs, name)
		}
	}
	if r.config.Output.OnlyOutputColumns {
		return work.Select(outputs...)
	}
	return r.project(work, outputs), nil
}

func (r *run) project(work *table.Table, outputs []string) *table.Table {
	names := r.input.Columns()
	seen := make(map[string]bool, len(names)+len(outputs))
	for _, n := range names {
		seen[n] = true
	}
	for _, n := range outputs {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	out, _ := work.Select(names...)
	return out
}
