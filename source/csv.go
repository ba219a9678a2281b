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

package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
)

// nullTokens are CSV cells read as null
var nullTokens = map[string]bool{
	"": true, "NA": true, "N/A": true, "NaN": true, "nan": true,
	"null": true, "NULL": true, "None": true,
}

// ReadCSVFile reads a CSV file whose first record is the header
func ReadCSVFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("open csv: %w", err))
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads CSV data whose first record is the header. Each column is
// typed as a whole: int when every non-null cell is an integer, then float,
// then bool (true/false in any case), otherwise string.
func ReadCSV(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err == io.EOF {
		return table.New(0), nil
	}
	if err != nil {
		return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("read csv header: %w", err))
	}
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		if seen[name] {
			return nil, types.NewInputError("", fmt.Sprintf("duplicate csv column '%s'", name))
		}
		seen[name] = true
		header[i] = name
	}

	raw := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("read csv: %w", err))
		}
		for i := range header {
			raw[i] = append(raw[i], record[i])
		}
	}

	cols := make(map[string][]any, len(header))
	for i, name := range header {
		cols[name] = inferColumn(raw[i])
	}
	return table.FromColumns(header, cols)
}

func inferColumn(cells []string) []any {
	out := make([]any, len(cells))
	for _, parse := range []func(string) (any, bool){parseInt, parseFloat, parseBool} {
		ok := true
		for i, c := range cells {
			c = strings.TrimSpace(c)
			if nullTokens[c] {
				out[i] = nil
				continue
			}
			v, good := parse(c)
			if !good {
				ok = false
				break
			}
			out[i] = v
		}
		if ok {
			return out
		}
	}
	for i, c := range cells {
		if nullTokens[strings.TrimSpace(c)] {
			out[i] = nil
			continue
		}
		out[i] = c
	}
	return out
}

func parseInt(s string) (any, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func parseFloat(s string) (any, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func parseBool(s string) (any, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return nil, false
}
