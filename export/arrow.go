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
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/utils/cast"
)

// ArrowType picks the Arrow type of a column from its non-null values:
// int64 when all are integers, float64 when all are numbers, boolean,
// microsecond UTC timestamps, and utf8 for anything else.
func ArrowType(values []any) arrow.DataType {
	ints, floats, bools, times, others := 0, 0, 0, 0, 0
	for _, v := range values {
		if cast.IsNull(v) {
			continue
		}
		switch cast.Normalize(v).(type) {
		case int64:
			ints++
		case float64:
			floats++
		case bool:
			bools++
		case time.Time:
			times++
		default:
			others++
		}
	}
	switch {
	case others > 0:
		return arrow.BinaryTypes.String
	case ints > 0 && floats+bools+times == 0:
		return arrow.PrimitiveTypes.Int64
	case ints+floats > 0 && bools+times == 0:
		return arrow.PrimitiveTypes.Float64
	case bools > 0 && ints+floats+times == 0:
		return arrow.FixedWidthTypes.Boolean
	case times > 0 && ints+floats+bools == 0:
		return arrow.FixedWidthTypes.Timestamp_us
	}
	return arrow.BinaryTypes.String
}

// Schema returns the Arrow schema of t. Every field is nullable.
func Schema(t *table.Table) *arrow.Schema {
	names := t.Columns()
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		col, _ := t.Column(name)
		fields[i] = arrow.Field{Name: name, Type: ArrowType(col), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrowRecord converts t into an Arrow record batch. The caller must
// release the record. A nil allocator uses memory.DefaultAllocator.
func ToArrowRecord(t *table.Table, mem memory.Allocator) (arrow.RecordBatch, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	schema := Schema(t)
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i, field := range schema.Fields() {
		col, _ := t.Column(field.Name)
		if err := appendColumn(builder.Field(i), col); err != nil {
			return nil, fmt.Errorf("column '%s': %w", field.Name, err)
		}
	}
	return builder.NewRecordBatch(), nil
}

func appendColumn(b array.Builder, values []any) error {
	for _, v := range values {
		if cast.IsNull(v) {
			b.AppendNull()
			continue
		}
		switch fb := b.(type) {
		case *array.Int64Builder:
			n, err := cast.ToInt64E(v)
			if err != nil {
				return err
			}
			fb.Append(n)
		case *array.Float64Builder:
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return err
			}
			fb.Append(f)
		case *array.BooleanBuilder:
			fb.Append(v.(bool))
		case *array.TimestampBuilder:
			fb.Append(arrow.Timestamp(v.(time.Time).UnixMicro()))
		case *array.StringBuilder:
			fb.Append(cast.ToString(v))
		default:
			return fmt.Errorf("unsupported builder %T", b)
		}
	}
	return nil
}

// WriteArrowIPC writes t as an Arrow IPC stream
func WriteArrowIPC(w io.Writer, t *table.Table, mem memory.Allocator) error {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	rec, err := ToArrowRecord(t, mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	return writer.Close()
}
