package programs

import (
	"reflect"
	"strings"
)

// UniformField is one leaf of a uniform struct, named the way GLSL names it.
type UniformField struct {
	Name  string
	Value reflect.Value
}

// UniformFields flattens the struct pointed to by v into GLSL uniform names
// taken from `uniform` tags. Nested structs become "outer.inner" and fields
// tagged "-" or untagged are skipped.
func UniformFields(v any) []UniformField {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return appendUniformFields(nil, "", rv)
}

func appendUniformFields(fields []UniformField, prefix string, v reflect.Value) []UniformField {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("uniform")
		if tag == "" || tag == "-" {
			continue
		}

		name := prefix + strings.ToLower(tag)
		f := v.Field(i)
		if f.Kind() == reflect.Struct {
			fields = appendUniformFields(fields, name+".", f)
			continue
		}
		fields = append(fields, UniformField{Name: name, Value: f})
	}
	return fields
}
