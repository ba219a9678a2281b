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

// Package table provides the in-memory tabular dataset consumed and produced
// by DataTidy. A Table is an ordered set of equally long named columns; a nil
// cell is a null.
package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rulego/datatidy/utils/cast"
)

// Table is a column-oriented dataset
type Table struct {
	names []string
	cols  map[string][]any
	n     int
}

// New creates an empty table with n rows and no columns
func New(n int) *Table {
	return &Table{cols: make(map[string][]any), n: n}
}

// FromColumns builds a table from columns listed in names. Every column must
// have the same length.
func FromColumns(names []string, cols map[string][]any) (*Table, error) {
	t := New(0)
	for i, name := range names {
		values, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("column '%s' has no values", name)
		}
		if i == 0 {
			t.n = len(values)
		}
		if err := t.Set(name, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustFromColumns is FromColumns that panics on error. Intended for tests and examples.
func MustFromColumns(names []string, cols map[string][]any) *Table {
	t, err := FromColumns(names, cols)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a table from row maps. When names is empty the column
// order is the sorted union of the record keys.
func FromRecords(records []map[string]any, names ...string) *Table {
	if len(names) == 0 {
		set := make(map[string]struct{})
		for _, r := range records {
			for k := range r {
				set[k] = struct{}{}
			}
		}
		for k := range set {
			names = append(names, k)
		}
		sort.Strings(names)
	}
	t := New(len(records))
	for _, name := range names {
		values := make([]any, len(records))
		for i, r := range records {
			values[i] = cast.Normalize(r[name])
		}
		t.names = append(t.names, name)
		t.cols[name] = values
	}
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	return t.n
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether the column exists
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the values of a column. The slice is owned by the table and
// must not be modified.
func (t *Table) Column(name string) ([]any, bool) {
	v, ok := t.cols[name]
	return v, ok
}

// Set adds or replaces a column. The values must match the table length,
// except on a table with no columns, which adopts the length.
func (t *Table) Set(name string, values []any) error {
	if len(t.names) == 0 && t.n == 0 {
		t.n = len(values)
	}
	if len(values) != t.n {
		return fmt.Errorf("column '%s' has %d values, table has %d rows", name, len(values), t.n)
	}
	if _, ok := t.cols[name]; !ok {
		t.names = append(t.names, name)
	}
	t.cols[name] = values
	return nil
}

// Drop removes the named columns; unknown names are ignored
func (t *Table) Drop(names ...string) {
	for _, name := range names {
		if _, ok := t.cols[name]; !ok {
			continue
		}
		delete(t.cols, name)
		for i, n := range t.names {
			if n == name {
				t.names = append(t.names[:i:i], t.names[i+1:]...)
				break
			}
		}
	}
}

// Select returns a new table holding only the named columns, in that order
func (t *Table) Select(names ...string) (*Table, error) {
	out := New(t.n)
	for _, name := range names {
		values, ok := t.cols[name]
		if !ok {
			return nil, fmt.Errorf("column '%s' not found", name)
		}
		out.names = append(out.names, name)
		out.cols[name] = values
	}
	return out, nil
}

// Clone returns a copy whose column slices can be replaced or modified
// without affecting t.
func (t *Table) Clone() *Table {
	out := New(t.n)
	for _, name := range t.names {
		values := make([]any, len(t.cols[name]))
		copy(values, t.cols[name])
		out.names = append(out.names, name)
		out.cols[name] = values
	}
	return out
}

// Row returns row i as a map of column name to value
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.names))
	for _, name := range t.names {
		row[name] = t.cols[name][i]
	}
	return row
}

// Records returns all rows as maps
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.n)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Filter returns a new table holding the rows where mask is true
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.n {
		return nil, fmt.Errorf("mask has %d entries, table has %d rows", len(mask), t.n)
	}
	keep := make([]int, 0, t.n)
	for i, ok := range mask {
		if ok {
			keep = append(keep, i)
		}
	}
	return t.take(keep), nil
}

func (t *Table) take(rows []int) *Table {
	out := New(len(rows))
	for _, name := range t.names {
		src := t.cols[name]
		values := make([]any, len(rows))
		for j, i := range rows {
			values[j] = src[i]
		}
		out.names = append(out.names, name)
		out.cols[name] = values
	}
	return out
}

// SortKey orders rows by one column
type SortKey struct {
	Column     string
	Descending bool
}

// SortBy returns a new table sorted by the keys. The sort is stable and nulls
// sort last regardless of direction.
func (t *Table) SortBy(keys ...SortKey) (*Table, error) {
	for _, k := range keys {
		if !t.Has(k.Column) {
			return nil, fmt.Errorf("sort column '%s' not found", k.Column)
		}
	}
	idx := make([]int, t.n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for _, k := range keys {
			col := t.cols[k.Column]
			va, vb := col[idx[a]], col[idx[b]]
			na, nb := cast.IsNull(va), cast.IsNull(vb)
			switch {
			case na && nb:
				continue
			case na:
				return false
			case nb:
				return true
			}
			c := cast.Compare(va, vb)
			if c == 0 {
				continue
			}
			if k.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return t.take(idx), nil
}

// String renders a short description such as "Table[3 rows x 2 cols: a, b]"
func (t *Table) String() string {
	return fmt.Sprintf("Table[%d rows x %d cols: %s]", t.n, len(t.names), strings.Join(t.names, ", "))
}
