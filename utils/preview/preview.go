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

package preview

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/utils/cast"
)

// minWidth is the narrowest a printed column gets
const minWidth = 4

// Fprint writes t as an ASCII grid. At most maxRows rows are printed
// when maxRows > 0; the footer always reports the full row count.
func Fprint(w io.Writer, t *table.Table, maxRows int) {
	columns := t.Columns()
	if len(columns) == 0 {
		fmt.Fprintf(w, "(%d rows)\n", t.Len())
		return
	}
	rows := t.Len()
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}

	cells := make([][]string, rows)
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = max(utf8.RuneCountInString(col), minWidth)
	}
	for r := 0; r < rows; r++ {
		cells[r] = make([]string, len(columns))
		for i, col := range columns {
			values, _ := t.Column(col)
			s := formatCell(values[r])
			cells[r][i] = s
			widths[i] = max(widths[i], utf8.RuneCountInString(s))
		}
	}

	border(w, widths)
	line(w, widths, columns)
	border(w, widths)
	for _, row := range cells {
		line(w, widths, row)
	}
	border(w, widths)
	if rows < t.Len() {
		fmt.Fprintf(w, "(%d of %d rows)\n", rows, t.Len())
		return
	}
	fmt.Fprintf(w, "(%d rows)\n", t.Len())
}

// Sprint returns the grid Fprint would write
func Sprint(t *table.Table, maxRows int) string {
	var sb strings.Builder
	Fprint(&sb, t, maxRows)
	return sb.String()
}

func formatCell(v any) string {
	if cast.IsNull(v) {
		return "NULL"
	}
	return cast.ToString(v)
}

func border(w io.Writer, widths []int) {
	var sb strings.Builder
	sb.WriteByte('+')
	for _, width := range widths {
		sb.WriteString(strings.Repeat("-", width+2))
		sb.WriteByte('+')
	}
	fmt.Fprintln(w, sb.String())
}

func line(w io.Writer, widths []int, values []string) {
	var sb strings.Builder
	sb.WriteByte('|')
	for i, v := range values {
		sb.WriteByte(' ')
		sb.WriteString(v)
		sb.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v)))
		sb.WriteString(" |")
	}
	fmt.Fprintln(w, sb.String())
}
