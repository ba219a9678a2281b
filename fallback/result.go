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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rulego/datatidy/planner"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
)

// ProcessingResult is the outcome of one run. It is owned by the caller.
type ProcessingResult struct {
	RunID             string
	Success           bool
	Data              *table.Table
	Mode              types.ProcessingMode
	SuccessfulColumns []string
	FailedColumns     []string
	SkippedColumns    []string
	Errors            []ErrorRecord
	StartTime         time.Time
	Duration          time.Duration
	FallbackUsed      bool
	TotalColumns      int
	// FailureRate is the fraction of failed columns in a partial run
	FailureRate float64
	Plan        *planner.ExecutionPlan
}

// ColumnStatus classifies a column as success, failed or skipped. The
// empty string means the column was not part of the run.
func (r *ProcessingResult) ColumnStatus(column string) string {
	for _, c := range r.FailedColumns {
		if c == column {
			return "failed"
		}
	}
	for _, c := range r.SuccessfulColumns {
		if c == column {
			return "success"
		}
	}
	for _, c := range r.SkippedColumns {
		if c == column {
			return "skipped"
		}
	}
	return ""
}

// Metrics summarizes a run
type Metrics struct {
	RunID             string                      `json:"run_id"`
	ProcessingMode    types.ProcessingMode        `json:"processing_mode"`
	StartTime         time.Time                   `json:"start_time"`
	EndTime           time.Time                   `json:"end_time"`
	DurationSeconds   float64                     `json:"duration_seconds"`
	TotalColumns      int                         `json:"total_columns"`
	SuccessfulColumns int                         `json:"successful_columns"`
	FailedColumns     int                         `json:"failed_columns"`
	SkippedColumns    int                         `json:"skipped_columns"`
	FallbackUsed      bool                        `json:"fallback_used"`
	Success           bool                        `json:"success"`
	ErrorCategories   map[types.ErrorCategory]int `json:"error_categories"`
}

// Summary groups the error log for debugging
type Summary struct {
	TotalErrors      int                         `json:"total_errors"`
	ByCategory       map[types.ErrorCategory]int `json:"by_category,omitempty"`
	ByColumn         map[string]int              `json:"by_column,omitempty"`
	MostCommonErrors map[string]int              `json:"most_common_errors,omitempty"`
}

// Report is the exportable error report of a run
type Report struct {
	Metrics     Metrics       `json:"processing_metrics"`
	Errors      []ErrorRecord `json:"error_log"`
	Summary     Summary       `json:"error_summary"`
	Suggestions []string      `json:"suggestions"`
}

// Report builds the error report of the run
func (r *ProcessingResult) Report() *Report {
	m := Metrics{
		RunID:             r.RunID,
		ProcessingMode:    r.Mode,
		StartTime:         r.StartTime,
		EndTime:           r.StartTime.Add(r.Duration),
		DurationSeconds:   r.Duration.Seconds(),
		TotalColumns:      r.TotalColumns,
		SuccessfulColumns: len(r.SuccessfulColumns),
		FailedColumns:     len(r.FailedColumns),
		SkippedColumns:    len(r.SkippedColumns),
		FallbackUsed:      r.FallbackUsed,
		Success:           r.Success,
		ErrorCategories:   map[types.ErrorCategory]int{},
	}
	s := Summary{TotalErrors: len(r.Errors)}
	if len(r.Errors) > 0 {
		s.ByCategory = map[types.ErrorCategory]int{}
		s.ByColumn = map[string]int{}
		s.MostCommonErrors = map[string]int{}
	}
	for _, e := range r.Errors {
		m.ErrorCategories[e.Category]++
		s.ByCategory[e.Category]++
		s.ByColumn[e.Column]++
		s.MostCommonErrors[e.ErrorType]++
	}
	errs := r.Errors
	if errs == nil {
		errs = []ErrorRecord{}
	}
	return &Report{Metrics: m, Errors: errs, Summary: s, Suggestions: r.Suggestions()}
}

// Suggestions returns debugging hints derived from the error categories
func (r *ProcessingResult) Suggestions() []string {
	if len(r.Errors) == 0 {
		return []string{"No errors found"}
	}
	seen := map[types.ErrorCategory]bool{}
	for _, e := range r.Errors {
		seen[e.Category] = true
	}
	var out []string
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	for _, c := range categories {
		out = append(out, hints[types.ErrorCategory(c)]...)
	}
	if total := r.TotalColumns; total > 0 && float64(len(r.FailedColumns))/float64(total) > 0.5 {
		out = append(out,
			"High failure rate: consider processing_mode partial with fallback_transformations",
			"Review the configuration for errors shared by several columns",
			"Test with a smaller dataset first")
	}
	return out
}

var hints = map[types.ErrorCategory][]string{
	types.CategoryValidation: {
		"Validation errors: check null handling and the nullable/required flags",
		"Validation errors: review min/max value and length constraints",
	},
	types.CategoryTransformation: {
		"Transformation errors: check expressions for syntax errors",
		"Transformation errors: verify that referenced columns exist and have the expected types",
	},
	types.CategoryDataType: {
		"Data type errors: check the column type and datetime format against the input values",
	},
	types.CategoryDependency: {
		"Dependency errors: ensure every referenced column is defined",
		"Dependency errors: look for circular references between columns",
	},
	types.CategoryConfiguration: {
		"Configuration errors: check operation types and their required fields",
	},
	types.CategoryInput: {
		"Input errors: check that source columns exist in the input data",
	},
	types.CategorySystem: {
		"System errors: rerun with log_level debug for details",
	},
}

// WriteJSON writes the report as indented JSON
func (rep *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// ExportReport writes the report of r to a JSON file
func (r *ProcessingResult) ExportReport(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create error report: %w", err)
	}
	if err := r.Report().WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("write error report: %w", err)
	}
	return f.Close()
}
