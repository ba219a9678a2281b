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

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/utils/cast"
)

// WriteCSV writes t with a header row. Nulls are written as empty cells.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	names := t.Columns()
	if err := cw.Write(names); err != nil {
		return err
	}
	cols := make([][]any, len(names))
	for i, name := range names {
		cols[i], _ = t.Column(name)
	}
	record := make([]string, len(names))
	for r := 0; r < t.Len(); r++ {
		for i := range cols {
			record[i] = ""
			if v := cols[i][r]; !cast.IsNull(v) {
				record[i] = cast.ToString(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t to a CSV file, replacing it if it exists
func WriteCSVFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
