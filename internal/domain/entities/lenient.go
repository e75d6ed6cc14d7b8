package entities

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
)

var unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// decodeLenient decodes data into the value v points to. When strict decoding
// fails it decodes field by field: a fractional number in an integer field is
// truncated and any other value that does not fit keeps the zero value.
func decodeLenient(data []byte, v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	lenientValue(data, rv.Elem())
}

func lenientValue(data []byte, rv reflect.Value) {
	if err := json.Unmarshal(data, rv.Addr().Interface()); err == nil {
		return
	}
	rv.Set(reflect.Zero(rv.Type()))

	if rv.Addr().Type().Implements(unmarshalerType) {
		return
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var f float64
		if json.Unmarshal(data, &f) != nil {
			return
		}
		f = math.Trunc(f)
		if f >= math.MinInt64 && f < math.MaxInt64 && !rv.OverflowInt(int64(f)) {
			rv.SetInt(int64(f))
		}
	case reflect.Struct:
		var fields map[string]json.RawMessage
		if json.Unmarshal(data, &fields) != nil {
			return
		}
		lenientStruct(fields, rv)
	case reflect.Slice:
		var items []json.RawMessage
		if json.Unmarshal(data, &items) != nil {
			return
		}
		out := reflect.MakeSlice(rv.Type(), 0, len(items))
		for _, item := range items {
			elem := reflect.New(rv.Type().Elem()).Elem()
			lenientValue(item, elem)
			out = reflect.Append(out, elem)
		}
		rv.Set(out)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return
		}
		var items map[string]json.RawMessage
		if json.Unmarshal(data, &items) != nil {
			return
		}
		out := reflect.MakeMapWithSize(rv.Type(), len(items))
		for key, item := range items {
			elem := reflect.New(rv.Type().Elem()).Elem()
			lenientValue(item, elem)
			out.SetMapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()), elem)
		}
		rv.Set(out)
	case reflect.Pointer:
		if strings.TrimSpace(string(data)) == "null" {
			return
		}
		elem := reflect.New(rv.Type().Elem())
		lenientValue(data, elem.Elem())
		rv.Set(elem)
	}
}

func lenientStruct(fields map[string]json.RawMessage, rv reflect.Value) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				lenientStruct(fields, rv.Field(i))
				continue
			}
			name = field.Name
		}

		raw, ok := fields[name]
		if !ok {
			for key, value := range fields {
				if strings.EqualFold(key, name) {
					raw, ok = value, true
					break
				}
			}
		}
		if ok {
			lenientValue(raw, rv.Field(i))
		}
	}
}
