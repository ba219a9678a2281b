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
	"bytes"
	"context"
	"testing"

	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/logger"
	"github.com/rulego/datatidy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLogLevel(t *testing.T) {
	cfg := types.NewConfig(types.ColumnSpec{Name: "q", Source: "qty"})

	tests := []struct {
		name    string
		level   logger.Level
		hasInfo bool
	}{
		{"debug", logger.DEBUG, true},
		{"info", logger.INFO, true},
		{"error", logger.ERROR, false},
		{"off", logger.OFF, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			dt, err := New(cfg, WithLogOutput(&buf, logger.WARN), WithLogLevel(tt.level))
			require.NoError(t, err)
			_, err = dt.Process(context.Background(), orders())
			require.NoError(t, err)
			assert.Equal(t, tt.hasInfo, bytes.Contains(buf.Bytes(), []byte("[INFO]")))
		})
	}
}

type vatFunction struct {
	*functions.BaseFunction
}

func (vatFunction) Execute(ctx *functions.FunctionContext, args []any) (any, error) {
	return args[0].(float64) * 0.2, nil
}

func TestWithFunction(t *testing.T) {
	cfg := types.NewConfig(types.ColumnSpec{Name: "tax", Transformation: "vat(price)"})

	vat := vatFunction{functions.NewBaseFunction("vat", functions.TypeCustom, "value added tax", 1, 1)}
	dt, err := New(cfg, WithDiscardLog(), WithFunction(vat))
	require.NoError(t, err)
	res, err := dt.Process(context.Background(), orders())
	require.NoError(t, err)
	tax, _ := res.Data.Column("tax")
	assert.InDeltaSlice(t, []any{0.5, 2.0, 0.2}, tax, 1e-9)

	_, err = New(cfg, WithDiscardLog(), WithFunction(vat), WithFunction(vat))
	require.Error(t, err)

	dt, err = New(cfg, WithDiscardLog())
	require.NoError(t, err)
	_, err = dt.Process(context.Background(), orders())
	require.Error(t, err, "vat is not registered on this instance")
}
