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
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rulego/datatidy/config"
	"github.com/rulego/datatidy/fallback"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
	"github.com/rulego/datatidy/utils/cast"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database with the pure Go modernc driver
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("open database: %w", err))
	}
	return db, nil
}

// Query runs query on db and returns the result set as a table. Column
// order follows the result set; BLOB and TEXT values become strings.
func Query(ctx context.Context, db *sql.DB, query string, args ...any) (*table.Table, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("read columns: %w", err))
	}
	cols := make([][]any, len(names))
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("scan row: %w", err))
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			cols[i] = append(cols[i], cast.Normalize(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("iterate rows: %w", err))
	}

	byName := make(map[string][]any, len(names))
	for i, name := range names {
		if _, dup := byName[name]; dup {
			return nil, types.NewInputError("", fmt.Sprintf("duplicate result column '%s'", name))
		}
		if cols[i] == nil {
			cols[i] = []any{}
		}
		byName[name] = cols[i]
	}
	return table.FromColumns(names, byName)
}

// ReadSQLite opens dsn, runs query and closes the database
func ReadSQLite(ctx context.Context, dsn, query string) (*table.Table, error) {
	db, err := OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return Query(ctx, db, query)
}

// SQLSupplier returns a fallback supplier that runs query against dsn
func SQLSupplier(dsn, query string) fallback.Supplier {
	return func(ctx context.Context) (*table.Table, error) {
		return ReadSQLite(ctx, dsn, query)
	}
}

// Read loads the table described by an input configuration
func Read(ctx context.Context, in *types.InputConfig) (*table.Table, error) {
	if in == nil {
		return nil, types.NewConfigurationError("", "no input configured")
	}
	switch strings.ToLower(in.Type) {
	case config.InputCSV:
		return ReadCSVFile(in.Source)
	case config.InputSQLite:
		return ReadSQLite(ctx, in.Source, in.Query)
	}
	return nil, types.NewConfigurationError("", fmt.Sprintf("unsupported input type '%s'", in.Type))
}

// Supplier returns the fallback supplier configured by fallback_query, or
// nil when there is none. The query runs against the input database.
func Supplier(cfg *types.Config) fallback.Supplier {
	q := cfg.GlobalSettings.FallbackQuery
	if q == "" || cfg.Input == nil || !strings.EqualFold(cfg.Input.Type, config.InputSQLite) {
		return nil
	}
	return SQLSupplier(cfg.Input.Source, q)
}
