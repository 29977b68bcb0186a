package interact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Bidon15/hardhatkit"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// ParseParams decodes a JSON array of call arguments. Numbers are kept as
// json.Number so large integers survive. Empty input is an empty list.
func ParseParams(raw string) ([]any, error) {
	if strings.TrimSpace(raw) == "" {
		return []any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var params []any
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("%w: FUNCTION_PARAMS must be a JSON array: %w", hardhatkit.ErrInvalidInput, err)
	}
	if params == nil {
		params = []any{}
	}
	return params, nil
}

// ConvertArgs converts JSON-decoded values into the Go types the ABI packer
// expects for the method's inputs.
func ConvertArgs(method abi.Method, params []any) ([]any, error) {
	if len(params) != len(method.Inputs) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d",
			hardhatkit.ErrInvalidInput, method.Name, len(method.Inputs), len(params))
	}
	out := make([]any, len(params))
	for i, in := range method.Inputs {
		v, err := convertArg(in.Type, params[i])
		if err != nil {
			name := in.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, in.Type, err)
		}
		out[i] = v
	}
	return out, nil
}

func convertArg(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		s, ok := v.(string)
		if !ok || !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%w: %v is not an address", hardhatkit.ErrInvalidInput, v)
		}
		return common.HexToAddress(s), nil

	case abi.IntTy, abi.UintTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return sizedInt(t, n)

	case abi.BoolTy:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if b == "true" || b == "false" {
				return b == "true", nil
			}
		}
		return nil, fmt.Errorf("%w: %v is not a bool", hardhatkit.ErrInvalidInput, v)

	case abi.StringTy:
		switch s := v.(type) {
		case string:
			return s, nil
		case json.Number:
			return s.String(), nil
		}
		return nil, fmt.Errorf("%w: %v is not a string", hardhatkit.ErrInvalidInput, v)

	case abi.BytesTy:
		return toBytes(v)

	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%w: %d bytes do not fit bytes%d", hardhatkit.ErrInvalidInput, len(b), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a list", hardhatkit.ErrInvalidInput, v)
		}
		var out reflect.Value
		if t.T == abi.ArrayTy {
			if len(list) != t.Size {
				return nil, fmt.Errorf("%w: want %d elements, got %d", hardhatkit.ErrInvalidInput, t.Size, len(list))
			}
			out = reflect.New(t.GetType()).Elem()
		} else {
			out = reflect.MakeSlice(t.GetType(), len(list), len(list))
		}
		for i, e := range list {
			conv, err := convertArg(*t.Elem, e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(reflect.ValueOf(conv))
		}
		return out.Interface(), nil

	case abi.TupleTy:
		out := reflect.New(t.GetType()).Elem()
		for i, elem := range t.TupleElems {
			var raw any
			switch x := v.(type) {
			case map[string]any:
				raw = x[t.TupleRawNames[i]]
			case []any:
				if len(x) != len(t.TupleElems) {
					return nil, fmt.Errorf("%w: tuple wants %d fields, got %d", hardhatkit.ErrInvalidInput, len(t.TupleElems), len(x))
				}
				raw = x[i]
			default:
				return nil, fmt.Errorf("%w: %v is not a tuple", hardhatkit.ErrInvalidInput, v)
			}
			conv, err := convertArg(*elem, raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", t.TupleRawNames[i], err)
			}
			out.Field(i).Set(reflect.ValueOf(conv))
		}
		return out.Interface(), nil
	}
	return nil, fmt.Errorf("%w: %s", hardhatkit.ErrUnsupportedArgType, t)
}

// toBigInt accepts JSON numbers and decimal or 0x-prefixed strings.
func toBigInt(v any) (*big.Int, error) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = x
	case float64:
		if x != float64(int64(x)) {
			return nil, fmt.Errorf("%w: %v is not an integer", hardhatkit.ErrInvalidInput, x)
		}
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	default:
		return nil, fmt.Errorf("%w: %v is not an integer", hardhatkit.ErrInvalidInput, v)
	}
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", hardhatkit.ErrInvalidInput, s)
	}
	return n, nil
}

// sizedInt converts n to the Go type go-ethereum uses for t: int8..int64 and
// uint8..uint64 for the small sizes, *big.Int otherwise.
func sizedInt(t abi.Type, n *big.Int) (any, error) {
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s is negative", hardhatkit.ErrInvalidInput, n)
	}
	bits := n.BitLen()
	if n.Sign() < 0 {
		bits = new(big.Int).Add(n, big.NewInt(1)).BitLen()
	}
	if t.T == abi.IntTy && bits > t.Size-1 || t.T == abi.UintTy && bits > t.Size {
		return nil, fmt.Errorf("%w: %s overflows %s", hardhatkit.ErrInvalidInput, n, t)
	}
	rt := t.GetType()
	if rt == bigIntType {
		return n, nil
	}
	out := reflect.New(rt).Elem()
	if t.T == abi.UintTy {
		out.SetUint(n.Uint64())
	} else {
		out.SetInt(n.Int64())
	}
	return out.Interface(), nil
}

func toBytes(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a hex string", hardhatkit.ErrInvalidInput, v)
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", hardhatkit.ErrInvalidInput, s, err)
	}
	return b, nil
}

// FormatResult renders unpacked return values joined by commas.
func FormatResult(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ",")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case *big.Int:
		return x.String()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case []byte:
		return hexutil.Encode(x)
	case string:
		return x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return hexutil.Encode(b)
		}
		fallthrough
	case reflect.Slice:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
