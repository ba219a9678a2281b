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

package aggregator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/montanaflynn/stats"
	"github.com/rulego/datatidy/utils/cast"
)

type AggregateType string

const (
	Mean   AggregateType = "mean"
	Avg    AggregateType = "avg"
	Sum    AggregateType = "sum"
	Count  AggregateType = "count"
	Max    AggregateType = "max"
	Min    AggregateType = "min"
	StdDev AggregateType = "std"
	Var    AggregateType = "var"
	Median AggregateType = "median"
	First  AggregateType = "first"
	Last   AggregateType = "last"
)

var builtinTypes = []AggregateType{Mean, Avg, Sum, Count, Max, Min, StdDev, Var, Median, First, Last}

// AggregatorFunction accumulates values and produces one result.
// Nulls are skipped by every builtin aggregator.
type AggregatorFunction interface {
	New() AggregatorFunction
	Add(value any) error
	Result() any
}

var (
	aggregatorRegistry = make(map[string]func() AggregatorFunction)
	registryMutex      sync.RWMutex
)

// Register adds a custom aggregator. Builtin names cannot be replaced.
func Register(name string, constructor func() AggregatorFunction) error {
	name = strings.ToLower(name)
	if isBuiltin(name) {
		return fmt.Errorf("aggregator %s is builtin", name)
	}
	registryMutex.Lock()
	defer registryMutex.Unlock()
	aggregatorRegistry[name] = constructor
	return nil
}

// Unregister removes a custom aggregator
func Unregister(name string) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	delete(aggregatorRegistry, strings.ToLower(name))
}

func isBuiltin(name string) bool {
	for _, t := range builtinTypes {
		if string(t) == name {
			return true
		}
	}
	return false
}

// IsAggregate reports whether name is a builtin or registered aggregate
func IsAggregate(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if isBuiltin(name) {
		return true
	}
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := aggregatorRegistry[name]
	return ok
}

// CreateBuiltinAggregator creates an empty aggregator by name
func CreateBuiltinAggregator(aggType AggregateType) (AggregatorFunction, error) {
	name := strings.ToLower(strings.TrimSpace(string(aggType)))
	registryMutex.RLock()
	constructor, exists := aggregatorRegistry[name]
	registryMutex.RUnlock()
	if exists {
		return constructor(), nil
	}

	switch AggregateType(name) {
	case Mean, Avg:
		return &AvgAggregator{}, nil
	case Sum:
		return &SumAggregator{}, nil
	case Count:
		return &CountAggregator{}, nil
	case Max:
		return &MaxAggregator{sign: 1}, nil
	case Min:
		return &MaxAggregator{sign: -1}, nil
	case StdDev:
		return &StdDevAggregator{}, nil
	case Var:
		return &StdDevAggregator{variance: true}, nil
	case Median:
		return &MedianAggregator{}, nil
	case First:
		return &FirstAggregator{}, nil
	case Last:
		return &LastAggregator{}, nil
	}
	return nil, fmt.Errorf("unsupported aggregate %q", string(aggType))
}

// Aggregate folds values with the named aggregate
func Aggregate(aggType AggregateType, values []any) (any, error) {
	agg, err := CreateBuiltinAggregator(aggType)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := agg.Add(v); err != nil {
			return nil, err
		}
	}
	return agg.Result(), nil
}

func toFloat(v any) (float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("cannot aggregate non-numeric value %v (%T)", v, v)
	}
	return f, nil
}

type floatCollector struct {
	values stats.Float64Data
}

func (c *floatCollector) collect(v any) error {
	if cast.IsNull(v) {
		return nil
	}
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	c.values = append(c.values, f)
	return nil
}

type AvgAggregator struct {
	floatCollector
}

func (a *AvgAggregator) New() AggregatorFunction {
	return &AvgAggregator{}
}

func (a *AvgAggregator) Add(v any) error {
	return a.collect(v)
}

func (a *AvgAggregator) Result() any {
	if len(a.values) == 0 {
		return nil
	}
	m, err := stats.Mean(a.values)
	if err != nil {
		return nil
	}
	return m
}

// SumAggregator keeps integer sums as int64 and switches to float64 as soon
// as a float value is added
type SumAggregator struct {
	floatCollector
	intSum  int64
	isFloat bool
}

func (s *SumAggregator) New() AggregatorFunction {
	return &SumAggregator{}
}

func (s *SumAggregator) Add(v any) error {
	v = cast.Normalize(v)
	if cast.IsNull(v) {
		return nil
	}
	switch x := v.(type) {
	case int64:
		s.intSum += x
	case bool:
		if x {
			s.intSum++
		}
	default:
		s.isFloat = true
	}
	return s.collect(v)
}

func (s *SumAggregator) Result() any {
	if !s.isFloat {
		return s.intSum
	}
	sum, _ := stats.Sum(s.values)
	return sum
}

type CountAggregator struct {
	count int64
}

func (c *CountAggregator) New() AggregatorFunction {
	return &CountAggregator{}
}

func (c *CountAggregator) Add(v any) error {
	if !cast.IsNull(v) {
		c.count++
	}
	return nil
}

func (c *CountAggregator) Result() any {
	return c.count
}

// MaxAggregator keeps the extreme value in its original type, so it also
// works on strings and datetimes. sign is 1 for max and -1 for min.
type MaxAggregator struct {
	value any
	sign  int
}

func (m *MaxAggregator) New() AggregatorFunction {
	return &MaxAggregator{sign: m.sign}
}

func (m *MaxAggregator) Add(v any) error {
	v = cast.Normalize(v)
	if cast.IsNull(v) {
		return nil
	}
	if m.value == nil || cast.Compare(v, m.value)*m.sign > 0 {
		m.value = v
	}
	return nil
}

func (m *MaxAggregator) Result() any {
	return m.value
}

// StdDevAggregator computes the sample standard deviation, or the sample
// variance when variance is set. Fewer than two values yield null.
type StdDevAggregator struct {
	floatCollector
	variance bool
}

func (s *StdDevAggregator) New() AggregatorFunction {
	return &StdDevAggregator{variance: s.variance}
}

func (s *StdDevAggregator) Add(v any) error {
	return s.collect(v)
}

func (s *StdDevAggregator) Result() any {
	if len(s.values) < 2 {
		return nil
	}
	var r float64
	var err error
	if s.variance {
		r, err = stats.VarS(s.values)
	} else {
		r, err = stats.StandardDeviationSample(s.values)
	}
	if err != nil {
		return nil
	}
	return r
}

type MedianAggregator struct {
	floatCollector
}

func (m *MedianAggregator) New() AggregatorFunction {
	return &MedianAggregator{}
}

func (m *MedianAggregator) Add(v any) error {
	return m.collect(v)
}

func (m *MedianAggregator) Result() any {
	if len(m.values) == 0 {
		return nil
	}
	r, err := stats.Median(m.values)
	if err != nil {
		return nil
	}
	return r
}

type FirstAggregator struct {
	value any
	seen  bool
}

func (f *FirstAggregator) New() AggregatorFunction {
	return &FirstAggregator{}
}

func (f *FirstAggregator) Add(v any) error {
	if !f.seen && !cast.IsNull(v) {
		f.value, f.seen = cast.Normalize(v), true
	}
	return nil
}

func (f *FirstAggregator) Result() any {
	return f.value
}

type LastAggregator struct {
	value any
}

func (l *LastAggregator) New() AggregatorFunction {
	return &LastAggregator{}
}

func (l *LastAggregator) Add(v any) error {
	if !cast.IsNull(v) {
		l.value = cast.Normalize(v)
	}
	return nil
}

func (l *LastAggregator) Result() any {
	return l.value
}
