package jsonrpc

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// IDKind is the state of a request or response id.
type IDKind int

const (
	// IDAbsent means the request carried no "id" member; the request is a notification.
	IDAbsent IDKind = iota
	// IDNull means the "id" member was JSON null.
	IDNull
	IDString
	IDNumber
)

func (k IDKind) String() string {
	switch k {
	case IDAbsent:
		return "absent"
	case IDNull:
		return "null"
	case IDString:
		return "string"
	case IDNumber:
		return "number"
	}
	return "IDKind(" + strconv.Itoa(int(k)) + ")"
}

// ID is a JSON-RPC request/response identifier.
//
// The zero value is an absent id. Numbers keep their exact wire text so that
// a response echoes the request id byte for byte.
type ID struct {
	kind IDKind
	str  string
	num  json.Number
}

// StringID returns a string id.
func StringID(s string) ID {
	return ID{kind: IDString, str: s}
}

// NumberID returns a numeric id. n must hold valid JSON number text.
func NumberID(n json.Number) ID {
	return ID{kind: IDNumber, num: n}
}

// IntID returns a numeric id for an integer.
func IntID(n int64) ID {
	return ID{kind: IDNumber, num: json.Number(strconv.FormatInt(n, 10))}
}

// NullID returns the null id.
func NullID() ID {
	return ID{kind: IDNull}
}

func (id ID) Kind() IDKind { return id.kind }

// IsNotification reports whether the id is absent.
func (id ID) IsNotification() bool { return id.kind == IDAbsent }

// Str returns the string value and whether the id is a string.
func (id ID) Str() (string, bool) {
	return id.str, id.kind == IDString
}

// Number returns the numeric value and whether the id is a number.
func (id ID) Number() (json.Number, bool) {
	return id.num, id.kind == IDNumber
}

func (id ID) String() string {
	switch id.kind {
	case IDString:
		return strconv.Quote(id.str)
	case IDNumber:
		return id.num.String()
	case IDNull:
		return "null"
	}
	return "<absent>"
}

// MarshalJSON writes strings and numbers as themselves. Null and absent ids
// are both written as null; an absent id never reaches the wire because
// responses to notifications either do not exist or are forced to Null.
func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case IDString:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(id.str); err != nil {
			return nil, err
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	case IDNumber:
		return []byte(id.num), nil
	}
	return []byte("null"), nil
}

// ResponseID derives the id of the response to a request carrying req.
//
// String and number ids map to themselves and null maps to null. An absent
// id maps to null only when force is set (a pre-execution protocol error that
// must be answered); otherwise ok is false because no response exists.
func ResponseID(req ID, force bool) (id ID, ok bool) {
	switch req.kind {
	case IDString, IDNumber:
		return req, true
	case IDNull:
		return NullID(), true
	case IDAbsent:
		if force {
			return NullID(), true
		}
		return ID{}, false
	}
	return ID{}, false
}
