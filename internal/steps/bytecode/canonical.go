package bytecode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical serializes a traversal as canonical GraphSON-style JSON.
//
// The output is byte-stable for equal traversals, which makes it usable as
// a submission payload and as a cache value:
//  1. Object keys sorted by UTF-16 code units (RFC 8785)
//  2. No HTML escaping
//  3. Strings NFC normalized
//  4. Map arguments rendered with sorted keys
//
// Typed values follow GraphSON 3 conventions:
//
//	{"@type":"g:Bytecode","@value":{"step":[["V"],["as","n"]]}}
//	{"@type":"g:P","@value":{"predicate":"eq","value":{"@type":"g:Int64","@value":1}}}
func MarshalCanonical(bc *Bytecode) ([]byte, error) {
	tree, err := toTree(bc)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(tree)
}

func typed(t string, v any) map[string]any {
	return map[string]any{"@type": t, "@value": v}
}

// toTree converts bytecode values to plain JSON-shaped Go values.
func toTree(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string:
		return x, nil
	case int64:
		return typed("g:Int64", x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return typed("g:Double", strconv.FormatFloat(x, 'g', -1, 64)), nil
		}
		return typed("g:Double", x), nil
	case []any:
		items, err := treeList(x)
		if err != nil {
			return nil, err
		}
		return typed("g:List", items), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		flat := make([]any, 0, 2*len(keys))
		for _, k := range keys {
			val, err := toTree(x[k])
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			flat = append(flat, k, val)
		}
		return typed("g:Map", flat), nil
	case *Bytecode:
		step := make([]any, len(x.Instructions))
		for i, in := range x.Instructions {
			args, err := treeList(in.Args)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, in.Operator, err)
			}
			step[i] = append([]any{in.Operator}, args...)
		}
		return typed("g:Bytecode", map[string]any{"step": step}), nil
	case Binding:
		val, err := toTree(x.Value)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", x.Key, err)
		}
		return typed("g:Binding", map[string]any{"key": x.Key, "value": val}), nil
	case Predicate:
		args, err := treeList(x.Args)
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", x.Operator, err)
		}
		var value any = args
		if len(args) == 1 {
			value = args[0]
		}
		t := "g:P"
		switch x.Operator {
		case "startingWith", "endingWith", "containing":
			t = "g:TextP"
		}
		if x.Custom {
			t = "cypher:P"
		}
		return typed(t, map[string]any{"predicate": x.Operator, "value": value}), nil
	case Enum:
		return typed("g:"+x.Type, x.Value), nil
	case Lambda:
		args, err := treeList(x.Args)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", x.Name, err)
		}
		return typed("cypher:Function", map[string]any{"name": x.Name, "args": args}), nil
	}
	return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
}

func treeList(in []any) ([]any, error) {
	out := make([]any, len(in))
	for i, e := range in {
		val, err := toTree(e)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = val
	}
	return out, nil
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return marshalCanonicalString(val)
	case bool:
		return []byte(strconv.FormatBool(val)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case float64:
		return []byte(formatNumber(val)), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		return marshalCanonicalObject(val)
	}
	return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
}

// formatNumber renders a finite float the way ECMAScript does, which is
// what RFC 8785 requires.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes "1e-07"; ECMAScript writes "1e-7".
		mant, exp, _ := bytes.Cut([]byte(s), []byte("e"))
		sign := exp[0]
		digits := bytes.TrimLeft(exp[1:], "0")
		return string(mant) + "e" + string(sign) + string(digits)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(out), nil
}

// unescapeLineSeparators undoes encoding/json's escaping of U+2028 and
// U+2029, which RFC 8785 forbids. An escape is only real when preceded by
// an even number of backslashes.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if i+6 <= len(data) && bytes.HasPrefix(data[i:], []byte(`\u202`)) && (data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}
