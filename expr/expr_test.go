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

package expr

import (
	"errors"
	"strconv"
	"testing"

	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		src  string
		typ  NodeType
		op   string
		args int
	}{
		{"a + b", NodeBinary, "+", 0},
		{"a + b * c", NodeBinary, "+", 0},
		{"-2 ** 2", NodeUnary, "-", 0},
		{"a < b <= c", NodeCompare, "", 3},
		{"a and b and c", NodeBoolOp, "and", 3},
		{"not a", NodeUnary, "not", 0},
		{"x if x > 0 else 0", NodeIfExp, "", 0},
		{"name.upper()", NodeCall, "", 0},
		{"[1, 2, 3]", NodeList, "", 3},
		{"(1, 2)", NodeTuple, "", 2},
		{"s[1:3]", NodeSubscript, "", 0},
		{"lambda x: x * 2", NodeLambda, "", 0},
		{"'a' 'b'", NodeConst, "", 0},
		{"-1", NodeConst, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			node, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, node.Type)
			if tt.op != "" {
				assert.Equal(t, tt.op, node.Op)
			}
			if tt.args > 0 {
				assert.Len(t, node.Args, tt.args)
			}
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	for _, src := range []string{"", "a +", "(a", "a b", "1 if 2", "'unterminated", "a[]"} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			var syntax *SyntaxError
			assert.True(t, errors.As(err, &syntax), "%v", err)
		})
	}
}

func TestValidateRejectsUnsafe(t *testing.T) {
	in := NewInterpreter(nil)
	tests := []struct {
		src  string
		kind string
	}{
		{"__import__('os')", "Call"},
		{"exec('x')", "Call"},
		{"eval('1')", "Call"},
		{"open('f').read()", "Call"},
		{"x.__class__", "Attribute"},
		{"a = 1", "Assign"},
		{"import os", "Import"},
		{"lambda x: x", "Lambda"},
		{"[x for x in a]", "Comprehension"},
		{"{'a': 1}", "Dict"},
		{"{1, 2}", "Set"},
		{"f'{a}'", "JoinedStr"},
		{"a << 2", "LShift"},
		{"a.b.c", "Attribute"},
		{"(a + b).upper", "Attribute"},
		{"a.mro()", "Call"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := in.ParseAndValidate(tt.src)
			require.Error(t, err)
			var unsafe *UnsafeConstructError
			require.True(t, errors.As(err, &unsafe), "%v", err)
			assert.Equal(t, tt.kind, unsafe.Kind)
			assert.Equal(t, types.CategoryTransformation, types.CategoryOf(err))
			assert.True(t, IsSafetyError(err))
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	in := NewInterpreter(nil)
	for _, src := range []string{
		"a + b",
		"abs(a) > 3 and not b",
		"name.str.upper()",
		"name.strip().lower().replace('a', 'b')",
		"ds.price * 2",
		"value.fillna(0)",
		"round(x / 3, 2)",
		"x if x is not None else 0",
		"s[::-1]",
		"a in [1, 2, 3]",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := in.ParseAndValidate(src)
			assert.NoError(t, err)
		})
	}
}

func TestEvaluateScalars(t *testing.T) {
	in := NewInterpreter(nil)
	b := Bindings{"a": 7, "b": 2, "f": 2.5, "s": "Hello", "n": nil, "l": []any{int64(1), int64(2), int64(3)}}
	tests := []struct {
		src  string
		want any
	}{
		{"a + b", int64(9)},
		{"a / b", 3.5},
		{"a // b", int64(3)},
		{"-a // b", int64(-4)},
		{"-a % b", int64(1)},
		{"a ** b", int64(49)},
		{"2 ** -1", 0.5},
		{"a * f", 17.5},
		{"a & 3", int64(3)},
		{"a | 8", int64(15)},
		{"a ^ 1", int64(6)},
		{"~a", int64(-8)},
		{"a > b", true},
		{"1 < b < a", true},
		{"1 < a < b", false},
		{"a == 7.0", true},
		{"n == None", false},
		{"n is None", true},
		{"a is not None", true},
		{"n + 1", nil},
		{"n > 1", false},
		{"a and b", int64(2)},
		{"0 or s", "Hello"},
		{"not n", true},
		{"s + ' world'", "Hello world"},
		{"s * 2", "HelloHello"},
		{"s.upper()", "HELLO"},
		{"s.str.lower()", "hello"},
		{"s[0]", "H"},
		{"s[-1]", "o"},
		{"s[1:3]", "el"},
		{"s[::-1]", "olleH"},
		{"l[1]", int64(2)},
		{"l[1:]", []any{int64(2), int64(3)}},
		{"2 in l", true},
		{"'ell' in s", true},
		{"len(s)", int64(5)},
		{"max(a, b, 10)", int64(10)},
		{"sum(l)", int64(6)},
		{"round(f)", int64(2)},
		{"str(a)", "7"},
		{"int('42') + 1", int64(43)},
		{"'yes' if a > 5 else 'no'", "yes"},
		{"n.fillna(0)", int64(0)},
		{"n.isna()", true},
		{"n.upper()", nil},
		{"True + 1", int64(2)},
		{"s.split('l')", []any{"He", "", "o"}},
		{"'-'.join(['a', 'b'])", "a-b"},
		{"s.zfill(7)", "00Hello"},
		{"s.startswith('He')", true},
		{"abs(-3)", int64(3)},
		{"sqrt(16)", 4.0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := in.ParseAndValidate(tt.src)
			require.NoError(t, err)
			got, err := in.Evaluate(p, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	in := NewInterpreter(nil)
	tests := []struct {
		src    string
		domain bool
	}{
		{"1 / 0", true},
		{"1 % 0", true},
		{"sqrt(-1)", true},
		{"'a' - 1", false},
		{"'abc'.upper(1)", false},
		{"[1][5]", true},
		{"1 < 'a'", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := in.ParseAndValidate(tt.src)
			require.NoError(t, err)
			_, err = in.Evaluate(p, nil)
			require.Error(t, err)
			assert.Equal(t, tt.domain, errors.Is(err, functions.ErrDomain))
		})
	}

	p, err := in.ParseAndValidate("missing + 1")
	require.NoError(t, err)
	_, err = in.Evaluate(p, nil)
	var unknown *UnknownBindingError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "missing", unknown.Name)
}

func TestEvaluateSizeLimits(t *testing.T) {
	in := NewInterpreter(nil)
	tests := []string{
		"'ab' * 9223372036854775807",
		"[1] * 9223372036854775807",
		"[1, 2] * 4611686018427387904",
		"'0'.zfill(10**12)",
		"'x' * 100000000",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			p, err := in.ParseAndValidate(src)
			require.NoError(t, err)
			var got any
			assert.NotPanics(t, func() { got, err = in.Evaluate(p, nil) })
			require.Error(t, err)
			assert.Nil(t, got)
			var evalErr *EvalError
			assert.True(t, errors.As(err, &evalErr))
			assert.False(t, errors.Is(err, functions.ErrDomain))
		})
	}

	p, err := in.ParseAndValidate("'ab' * 3 + str(len([0] * 1000))")
	require.NoError(t, err)
	got, err := in.Evaluate(p, nil)
	require.NoError(t, err)
	assert.Equal(t, "ababab1000", got)

	p, err = in.ParseAndValidate("[] * 9223372036854775807")
	require.NoError(t, err)
	got, err = in.Evaluate(p, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)

	p, err = in.ParseAndValidate("s * n")
	require.NoError(t, err)
	_, err = in.EvaluateVectors(p, Bindings{"s": Vector{"a", "b"}, "n": Vector{int64(2), int64(9223372036854775807)}}, 2)
	require.Error(t, err)
	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, []int{1}, evalErr.Indices)
}

func TestEvaluateVectors(t *testing.T) {
	in := NewInterpreter(nil)
	tbl := table.MustFromColumns([]string{"a", "b", "name"}, map[string][]any{
		"a":    {int64(1), int64(2), nil, int64(4)},
		"b":    {int64(0), int64(2), int64(3), int64(1)},
		"name": {" ann ", "Bob", nil, "cy"},
	})

	tests := []struct {
		src  string
		want []any
	}{
		{"a * 10", []any{int64(10), int64(20), nil, int64(40)}},
		{"a / b", []any{nil, 1.0, nil, 4.0}},
		{"a > 1", []any{false, true, false, true}},
		{"'big' if a > 1 else 'small'", []any{"small", "big", "small", "big"}},
		{"name.strip().title()", []any{"Ann", "Bob", nil, "Cy"}},
		{"a.fillna(0) + b", []any{int64(1), int64(4), int64(3), int64(5)}},
		{"max(a)", []any{int64(4), int64(4), int64(4), int64(4)}},
		{"a - sum(b)", []any{int64(-5), int64(-4), nil, int64(-2)}},
		{"max(a, b)", []any{int64(1), int64(2), int64(3), int64(4)}},
		{"42", []any{int64(42), int64(42), int64(42), int64(42)}},
		{"a is None", []any{false, false, true, false}},
		{"len(name)", []any{int64(5), int64(3), nil, int64(2)}},
		{"a > 1 and b or 'none'", []any{"none", int64(2), "none", int64(1)}},
		{"a > 1 or b > 2", []any{false, true, true, true}},
		{"not a > 1", []any{true, false, true, false}},
		{"not (a > 1 and b > 1)", []any{true, false, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := in.ParseAndValidate(tt.src)
			require.NoError(t, err)
			got, err := in.EvaluateTable(p, tbl, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateVectorsRowFailures(t *testing.T) {
	in := NewInterpreter(nil)
	b := Bindings{"v": Vector{"1", "x", "3", "y"}}

	p, err := in.ParseAndValidate("int(v) * 2")
	require.NoError(t, err)
	_, err = in.EvaluateVectors(p, b, 4)
	require.Error(t, err)
	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, []int{1, 3}, evalErr.Indices)
	assert.Contains(t, err.Error(), "rows 1, 3")

	// a scalar domain error fails instead of producing nulls
	p, err = in.ParseAndValidate("1 / 0")
	require.NoError(t, err)
	_, err = in.EvaluateVectors(p, b, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, functions.ErrDomain))

	p, err = in.ParseAndValidate("zzz + 1")
	require.NoError(t, err)
	_, err = in.EvaluateVectors(p, b, 4)
	var unknown *UnknownBindingError
	assert.True(t, errors.As(err, &unknown))
}

func TestParseFunction(t *testing.T) {
	in := NewInterpreter(nil)

	p, err := in.ParseFunction("lambda acc, x: acc + x", "acc", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"acc", "x"}, p.Params())
	got, err := in.Apply(p, nil, int64(3), int64(4))
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	p, err = in.ParseFunction("x * 2", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, p.Params())
	got, err = in.Apply(p, Bindings{"k": 1}, Vector{int64(1), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, Vector{int64(2), int64(4)}, got)

	_, err = in.Apply(p, nil)
	assert.Error(t, err)

	_, err = in.ParseFunction("lambda x: __import__('os')")
	var unsafe *UnsafeConstructError
	assert.True(t, errors.As(err, &unsafe))

	_, err = in.ParseFunction("1 + (lambda x: x)(2)")
	assert.True(t, errors.As(err, &unsafe))
}

func TestProgramCacheBounded(t *testing.T) {
	in := NewInterpreter(nil)
	first, err := in.ParseAndValidate("0 + 1")
	require.NoError(t, err)
	again, err := in.ParseAndValidate("0 + 1")
	require.NoError(t, err)
	assert.Same(t, first, again)

	for i := 0; i < 3*maxCachedPrograms; i++ {
		p, err := in.ParseAndValidate(strconv.Itoa(i) + " + 1")
		require.NoError(t, err)
		in.mu.RLock()
		size := len(in.cache)
		in.mu.RUnlock()
		require.LessOrEqual(t, size, maxCachedPrograms)
		got, err := in.Evaluate(p, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), got)
	}
}

func TestCustomFunction(t *testing.T) {
	reg := functions.NewBuiltinRegistry()
	require.NoError(t, reg.RegisterCustomFunction("double", functions.TypeCustom, "doubles a number", 1, 1,
		func(ctx *functions.FunctionContext, args []any) (any, error) {
			return args[0].(int64) * 2, nil
		}))
	in := NewInterpreter(reg)
	p, err := in.ParseAndValidate("double(a) + 1")
	require.NoError(t, err)
	got, err := in.EvaluateVectors(p, Bindings{"a": Vector{int64(1), nil, int64(3)}}, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), nil, int64(7)}, got)

	_, err = NewInterpreter(nil).ParseAndValidate("double(a)")
	assert.Error(t, err)
}
