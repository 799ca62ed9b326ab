// Package services maps every backend REST endpoint to one typed method.
// Response envelopes vary per endpoint, so decoding is tolerant about the
// wrapper key but strict about the record shape.
package services

import (
	"bytes"
	"encoding/json"
	"net/url"

	"fleetdash/internal/api"
)

// Ack is the {success, message} part most mutations answer with.
type Ack struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK is false only when the backend said success:false explicitly.
func (a Ack) OK() bool { return a.Success == nil || *a.Success }

func (a Ack) err(fallback string) error {
	if a.OK() {
		return nil
	}
	if a.Message != "" {
		return api.Local("%s", a.Message)
	}
	return api.Local("%s", fallback)
}

func ackOf(raw json.RawMessage) Ack {
	var a Ack
	_ = json.Unmarshal(raw, &a)
	return a
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// decodeList accepts a bare array or an object carrying the list under
// one of keys. A missing list decodes as empty.
func decodeList(path string, raw json.RawMessage, out any, keys ...string) error {
	if isNull(raw) {
		return nil
	}
	t := bytes.TrimSpace(raw)
	if t[0] == '[' {
		return wrapDecode(path, json.Unmarshal(t, out))
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(t, &obj); err != nil {
		return wrapDecode(path, err)
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok && !isNull(v) {
			return wrapDecode(path, json.Unmarshal(v, out))
		}
	}
	return nil
}

// decodeOne reads a single record under one of keys, or the body itself
// when it already looks like a record (has an _id). Reports whether a
// record was found.
func decodeOne(path string, raw json.RawMessage, out any, keys ...string) (bool, error) {
	if isNull(raw) {
		return false, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false, wrapDecode(path, err)
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok && !isNull(v) {
			return true, wrapDecode(path, json.Unmarshal(v, out))
		}
	}
	if _, ok := obj["_id"]; ok {
		return true, wrapDecode(path, json.Unmarshal(raw, out))
	}
	return false, nil
}

// record is decodeOne into a fresh T; nil when the body held no record.
func record[T any](path string, raw json.RawMessage, keys ...string) (*T, error) {
	var v T
	found, err := decodeOne(path, raw, &v, keys...)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

func wrapDecode(path string, err error) error {
	if err == nil {
		return nil
	}
	return &api.DecodeError{Path: path, Err: err}
}

func seg(id string) string { return url.PathEscape(id) }
