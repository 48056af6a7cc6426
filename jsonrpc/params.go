package jsonrpc

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
)

// ParamsKind is the shape of the "params" member.
type ParamsKind int

const (
	ParamsMissing ParamsKind = iota
	ParamsNull
	ParamsOrdered
	ParamsKeyed
	// ParamsOther is any shape other than array, object or null. It is a
	// protocol violation.
	ParamsOther
)

func (k ParamsKind) String() string {
	switch k {
	case ParamsMissing:
		return "missing"
	case ParamsNull:
		return "null"
	case ParamsOrdered:
		return "array"
	case ParamsKeyed:
		return "object"
	case ParamsOther:
		return "other"
	}
	return "ParamsKind(" + strconv.Itoa(int(k)) + ")"
}

// KeyedParam is one member of an object-shaped params value, in wire order.
type KeyedParam struct {
	Name  string
	Value json.RawMessage
}

// Params is the decoded "params" member of a request.
type Params struct {
	kind    ParamsKind
	raw     json.RawMessage
	ordered []json.RawMessage
	keyed   []KeyedParam
}

// ParseParams classifies raw. present reports whether the member existed at
// all; raw must be valid JSON when present is true.
func ParseParams(raw json.RawMessage, present bool) Params {
	if !present {
		return Params{kind: ParamsMissing}
	}
	raw = bytes.TrimSpace(raw)
	res := gjson.ParseBytes(raw)
	switch {
	case res.Type == gjson.Null:
		return Params{kind: ParamsNull, raw: raw}
	case res.IsArray():
		p := Params{kind: ParamsOrdered, raw: raw, ordered: []json.RawMessage{}}
		res.ForEach(func(_, v gjson.Result) bool {
			p.ordered = append(p.ordered, json.RawMessage(v.Raw))
			return true
		})
		return p
	case res.IsObject():
		p := Params{kind: ParamsKeyed, raw: raw, keyed: []KeyedParam{}}
		res.ForEach(func(k, v gjson.Result) bool {
			p.keyed = append(p.keyed, KeyedParam{Name: k.String(), Value: json.RawMessage(v.Raw)})
			return true
		})
		return p
	}
	return Params{kind: ParamsOther, raw: raw}
}

// OrderedParams builds array-shaped params from already encoded entries.
func OrderedParams(entries ...json.RawMessage) Params {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	raw, _ := json.Marshal(entries)
	return Params{kind: ParamsOrdered, raw: raw, ordered: entries}
}

func (p Params) Kind() ParamsKind { return p.kind }

// Ordered returns the entries of array-shaped params.
func (p Params) Ordered() []json.RawMessage { return p.ordered }

// Keyed returns the members of object-shaped params in wire order.
func (p Params) Keyed() []KeyedParam { return p.keyed }

// Raw returns the params value as it appeared on the wire, or nil when missing.
func (p Params) Raw() json.RawMessage { return p.raw }
