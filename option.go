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
	"io"

	"github.com/rulego/datatidy/fallback"
	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/logger"
)

// Option configures a DataTidy instance
type Option func(*DataTidy) error

// WithLogger sets the logger used for run progress and failures.
//
// Example:
//
//	dt, err := datatidy.New(cfg, datatidy.WithLogger(logger.NewLogger(logger.DEBUG, os.Stderr)))
func WithLogger(log logger.Logger) Option {
	return func(d *DataTidy) error {
		d.log = log
		return nil
	}
}

// WithLogLevel overrides the log_level global setting
func WithLogLevel(level logger.Level) Option {
	return func(d *DataTidy) error {
		d.level = &level
		return nil
	}
}

// WithLogOutput logs to output at level instead of standard error.
//
// Example:
//
//	logFile, _ := os.OpenFile("datatidy.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
//	dt, err := datatidy.New(cfg, datatidy.WithLogOutput(logFile, logger.INFO))
func WithLogOutput(output io.Writer, level logger.Level) Option {
	return func(d *DataTidy) error {
		d.log = logger.NewLogger(level, output)
		return nil
	}
}

// WithDiscardLog disables all log output
func WithDiscardLog() Option {
	return func(d *DataTidy) error {
		d.log = logger.NewDiscardLogger()
		return nil
	}
}

// WithFallbackSupplier sets where fallback mode reads its output table from
func WithFallbackSupplier(s fallback.Supplier) Option {
	return func(d *DataTidy) error {
		d.supplier = s
		return nil
	}
}

// WithErrorSink adds a sink that receives every error record of every run.
// Sinks are called synchronously from the processing goroutine.
func WithErrorSink(sink fallback.ErrorSink) Option {
	return func(d *DataTidy) error {
		d.sinks = append(d.sinks, sink)
		return nil
	}
}

// WithFunction makes fn callable from transformations and operations.
// Registering a name twice fails New.
func WithFunction(fn functions.Function) Option {
	return func(d *DataTidy) error {
		return d.registry.Register(fn)
	}
}

// WithCustomFunction registers a function from a plain executor.
//
// Example:
//
//	datatidy.WithCustomFunction("double", 1, 1, func(ctx *functions.FunctionContext, args []any) (any, error) {
//		f, err := cast.ToFloat64E(args[0])
//		return f * 2, err
//	})
func WithCustomFunction(name string, minArgs, maxArgs int,
	executor func(ctx *functions.FunctionContext, args []any) (any, error)) Option {
	return func(d *DataTidy) error {
		return d.registry.RegisterCustomFunction(name, functions.TypeCustom, "", minArgs, maxArgs, executor)
	}
}
