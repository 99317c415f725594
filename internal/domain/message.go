package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// MessageTypeAlert marks a real-time message announcing a new or changed alert.
const MessageTypeAlert = "alert"

// Message is one JSON object received on the real-time channel. The backend
// publishes no schema beyond "a JSON object"; "type" and "id" are read when present.
type Message map[string]any

// Type returns the message's "type" field, or "" when absent or not a string.
func (m Message) Type() string {
	s, _ := m["type"].(string)
	return s
}

// ID returns the message's "id" field formatted as text, or "" when absent.
func (m Message) ID() string {
	switch v := m["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// ErrNotObject is returned by DecodeMessage for frames that are not a single JSON object.
var ErrNotObject = errors.New("frame is not a JSON object")

// DecodeMessage parses one real-time frame. Numbers are kept as json.Number
// so ids and values survive re-encoding exactly.
func DecodeMessage(data []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var msg Message
	if err := dec.Decode(&msg); err != nil || msg == nil {
		return nil, ErrNotObject
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrNotObject
	}
	return msg, nil
}
