// Package events defines the transcription events written to the output
// stream and the line-delimited JSON emitter that writes them.
package events

import (
	"encoding/json"
	"fmt"
)

// Type discriminates the event variants.
type Type string

const (
	TypeReady   Type = "ready"
	TypePartial Type = "partial"
	TypeFinal   Type = "final"
	TypeError   Type = "error"
)

// Event is an immutable tagged variant. Only the fields that belong to Type
// are serialised.
type Event struct {
	Type    Type
	Text    string
	Start   float64
	End     float64
	Message string
}

// Ready signals that the engine is loaded and audio will be consumed.
func Ready() Event { return Event{Type: TypeReady} }

// Partial carries the evolving text of the unfinished tail.
func Partial(text string) Event { return Event{Type: TypePartial, Text: text} }

// Final carries stable text with its buffer-relative time range in seconds.
func Final(text string, start, end float64) Event {
	return Event{Type: TypeFinal, Text: text, Start: start, End: end}
}

// Error reports an unrecoverable failure.
func Error(message string) Event { return Event{Type: TypeError, Message: message} }

type readyWire struct {
	Type Type `json:"type"`
}

type partialWire struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

type finalWire struct {
	Type  Type    `json:"type"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type errorWire struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case TypeReady:
		return json.Marshal(readyWire{Type: e.Type})
	case TypePartial:
		return json.Marshal(partialWire{Type: e.Type, Text: e.Text})
	case TypeFinal:
		return json.Marshal(finalWire{Type: e.Type, Text: e.Text, Start: e.Start, End: e.End})
	case TypeError:
		return json.Marshal(errorWire{Type: e.Type, Message: e.Message})
	default:
		return nil, fmt.Errorf("events: unknown event type %q", e.Type)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    Type    `json:"type"`
		Text    string  `json:"text"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Message string  `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case TypeReady, TypePartial, TypeFinal, TypeError:
	default:
		return fmt.Errorf("events: unknown event type %q", raw.Type)
	}
	*e = Event{Type: raw.Type, Text: raw.Text, Start: raw.Start, End: raw.End, Message: raw.Message}
	return nil
}
