package endpoint

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// defaultFieldLimit is the byte limit applied to header and query values
// without a maxLength tag.
var defaultFieldLimit = 16 * 1024

// Unmarshal populates dst (a non-nil pointer to a struct) from the request.
//
// Supported struct tags:
//   - `body:""` reads the whole request body.
//   - `header:"Name"` reads a request header.
//   - `query:"name"` reads a URL query parameter.
//   - `maxLength:"n"` bounds the value in bytes; "0" disables the bound.
//     Body fields are unbounded by default, header and query fields default
//     to 16KB.
//
// An empty name defaults to the lowercased field name. Supported field types
// are string, []byte (including json.RawMessage), and encoding.TextUnmarshaler
// implementations. Missing values leave the field unchanged.
func Unmarshal(r *http.Request, dst any) error {
	if r == nil {
		return Error(http.StatusInternalServerError, "", errors.New("endpoint: decode: nil request"))
	}
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return Error(http.StatusInternalServerError, "", errors.New("endpoint: decode: dst must be a non-nil pointer"))
	}
	root := v.Elem()
	if root.Kind() != reflect.Struct {
		return Error(http.StatusInternalServerError, "", errors.New("endpoint: decode: dst must point to a struct"))
	}

	rt := root.Type()
	bodyRead := false
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		field := root.Field(i)

		limit, err := fieldLimit(sf)
		if err != nil {
			return Error(http.StatusInternalServerError, "", err)
		}

		if _, ok := sf.Tag.Lookup("body"); ok {
			if bodyRead {
				return Error(http.StatusInternalServerError, "", fmt.Errorf("endpoint: decode: field %s: body already bound", sf.Name))
			}
			bodyRead = true
			if err := decodeBody(r, field, limit); err != nil {
				return err
			}
			continue
		}

		var val string
		var present bool
		if tag, ok := sf.Tag.Lookup("header"); ok {
			name := tagName(tag, sf.Name)
			if vals := r.Header.Values(name); len(vals) > 0 {
				val, present = vals[0], true
			}
		} else if tag, ok := sf.Tag.Lookup("query"); ok {
			name := tagName(tag, sf.Name)
			if r.URL != nil {
				if q := r.URL.Query(); q.Has(name) {
					val, present = q.Get(name), true
				}
			}
		}
		if !present {
			continue
		}
		if limit == 0 && !hasMaxLengthTag(sf) {
			limit = defaultFieldLimit
		}
		if limit > 0 && len(val) > limit {
			return Error(http.StatusBadRequest, "", fmt.Errorf("field %s exceeds %d bytes", sf.Name, limit))
		}
		if err := setText(field, []byte(val)); err != nil {
			return Error(http.StatusBadRequest, "", fmt.Errorf("field %s: %w", sf.Name, err))
		}
	}
	return nil
}

func tagName(tag, fieldName string) string {
	if name := strings.TrimSpace(tag); name != "" {
		return name
	}
	return strings.ToLower(fieldName)
}

func hasMaxLengthTag(sf reflect.StructField) bool {
	_, ok := sf.Tag.Lookup("maxLength")
	return ok
}

// fieldLimit returns the maxLength tag value; 0 means unbounded (or not set).
func fieldLimit(sf reflect.StructField) (int, error) {
	tag := strings.TrimSpace(sf.Tag.Get("maxLength"))
	if tag == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(tag)
	if err != nil {
		return 0, fmt.Errorf("endpoint: decode: field %s: maxLength tag: %w", sf.Name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("endpoint: decode: field %s: maxLength tag must be non-negative", sf.Name)
	}
	return n, nil
}

func decodeBody(r *http.Request, field reflect.Value, limit int) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	var src io.Reader = r.Body
	if limit > 0 {
		src = io.LimitReader(r.Body, int64(limit)+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return Error(http.StatusRequestEntityTooLarge, "", err)
		}
		return Error(http.StatusBadRequest, "", fmt.Errorf("read body: %w", err))
	}
	if limit > 0 && len(data) > limit {
		return Error(http.StatusRequestEntityTooLarge, "", fmt.Errorf("body exceeds %d bytes", limit))
	}

	if err := setText(field, data); err != nil {
		return Error(http.StatusBadRequest, "", fmt.Errorf("body: %w", err))
	}
	return nil
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

func setText(field reflect.Value, data []byte) error {
	if field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType) {
		return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText(data)
	}
	switch {
	case field.Kind() == reflect.String:
		field.SetString(string(data))
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
		field.SetBytes(append([]byte(nil), data...))
	default:
		return fmt.Errorf("unsupported field type %v", field.Type())
	}
	return nil
}
