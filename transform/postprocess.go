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

package transform

import (
	"github.com/rulego/datatidy/condition"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
)

// ApplyFilters applies the output row filters in order
func (p *Processor) ApplyFilters(t *table.Table, filters []types.FilterSpec) (*table.Table, error) {
	for i, spec := range filters {
		f, err := condition.NewRowFilter(spec)
		if err != nil {
			e := types.NewConfigurationError("", err.Error())
			e.Stage = "output filter"
			return nil, e
		}
		before := t.Len()
		if t, err = f.Apply(t); err != nil {
			return nil, err
		}
		p.log.Debug("filter %d (%s '%s') kept %d of %d rows", i, f.Action, spec.Condition, t.Len(), before)
	}
	return t, nil
}

// ApplySort sorts by the configured keys. Keys naming a column that is not in
// the table are skipped with a warning.
func (p *Processor) ApplySort(t *table.Table, sorts []types.SortSpec) (*table.Table, error) {
	var keys []table.SortKey
	for _, s := range sorts {
		if !t.Has(s.Column) {
			p.log.Warn("sort column '%s' not found, skipping", s.Column)
			continue
		}
		keys = append(keys, table.SortKey{Column: s.Column, Descending: !s.IsAscending()})
	}
	if len(keys) == 0 {
		return t, nil
	}
	return t.SortBy(keys...)
}

// PostProcess applies filters and then sort
func (p *Processor) PostProcess(t *table.Table, out types.OutputConfig) (*table.Table, error) {
	t, err := p.ApplyFilters(t, out.Filters)
	if err != nil {
		return nil, err
	}
	return p.ApplySort(t, out.Sort)
}
