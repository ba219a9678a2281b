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

// Package config loads DataTidy YAML configurations.
//
// Omitted global settings take their defaults (strict mode, failure
// threshold 0.5, fallback enabled, input returned on failure). The column
// mapping keeps its declaration order, which is the scheduling tie-break
// between independent columns.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/rulego/datatidy/types"
	"gopkg.in/yaml.v3"
)

// Input types understood by the source package
const (
	InputCSV    = "csv"
	InputSQLite = "sqlite"
)

// Load reads and parses a configuration file
func Load(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.CategoryInput, "", fmt.Errorf("failed to read config file: %w", err))
	}
	return Parse(data)
}

// Parse decodes a YAML configuration, applies defaults and validates it
func Parse(data []byte) (*types.Config, error) {
	cfg := &types.Config{GlobalSettings: types.DefaultGlobalSettings()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		e := types.NewConfigurationError("", "failed to parse config YAML")
		e.Err = err
		return nil, e
	}
	mode, err := types.ParseMode(string(cfg.GlobalSettings.ProcessingMode))
	if err != nil {
		return nil, types.NewConfigurationError("", err.Error())
	}
	cfg.GlobalSettings.ProcessingMode = mode
	if len(cfg.Output.Columns) == 0 {
		return nil, types.NewConfigurationError("", "output.columns is empty")
	}
	if err := validateInput(cfg.Input); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateInput(in *types.InputConfig) error {
	if in == nil {
		return nil
	}
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	switch in.Type {
	case InputCSV:
	case InputSQLite:
		if in.Query == "" {
			return types.NewConfigurationError("", "sqlite input requires 'query'")
		}
	case "":
		return types.NewConfigurationError("", "input.type is required")
	default:
		return types.NewConfigurationError("", fmt.Sprintf("unsupported input type '%s'", in.Type))
	}
	if in.Source == "" {
		return types.NewConfigurationError("", "input.source is required")
	}
	return nil
}

// Marshal encodes cfg back to YAML
func Marshal(cfg *types.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
