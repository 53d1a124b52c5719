package textres

import "reflect"

// typeName renders T for diagnostics, e.g. "afero.Fs" or "*http.Client".
func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem() // reflect.TypeFor[T]() needs Go 1.22
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
