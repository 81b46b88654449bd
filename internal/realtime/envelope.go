package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Reserved envelope types. Any other non-empty string is a legal type and is
// routed as a passthrough.
const (
	TypePing               = "ping"
	TypePong               = "pong"
	TypeConnection         = "connection"
	TypeNewMatch           = "new_match"
	TypeJobShared          = "job_shared"
	TypeJobInterest        = "job_interest"
	TypeInterviewScheduled = "interview_scheduled"
)

// Kind classifies an envelope type. KindUnknown covers forward-compatible
// types that this build does not interpret.
type Kind int

const (
	KindUnknown Kind = iota
	KindPing
	KindPong
	KindConnection
	KindNewMatch
	KindJobShared
	KindJobInterest
	KindInterviewScheduled
)

var kindByType = map[string]Kind{
	TypePing:               KindPing,
	TypePong:               KindPong,
	TypeConnection:         KindConnection,
	TypeNewMatch:           KindNewMatch,
	TypeJobShared:          KindJobShared,
	TypeJobInterest:        KindJobInterest,
	TypeInterviewScheduled: KindInterviewScheduled,
}

func KindOf(typ string) Kind {
	return kindByType[typ]
}

func (k Kind) String() string {
	for typ, kind := range kindByType {
		if kind == k {
			return typ
		}
	}
	return "unknown"
}

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the wire unit exchanged in both directions as a text frame.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts any JSON number as the timestamp, including fractional
// and exponent forms, and truncates it to whole unix milliseconds.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	type envelopeAlias Envelope
	var raw struct {
		envelopeAlias
		Timestamp *json.Number `json:"timestamp,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Envelope(raw.envelopeAlias)
	e.Timestamp = 0
	if raw.Timestamp == nil {
		return nil
	}
	ts, err := parseMillis(*raw.Timestamp)
	if err != nil {
		return err
	}
	e.Timestamp = ts
	return nil
}

func parseMillis(n json.Number) (int64, error) {
	if ms, err := n.Int64(); err == nil {
		return ms, nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, fmt.Errorf("timestamp %q out of range", n.String())
	}
	return int64(f), nil
}

func (e Envelope) Kind() Kind {
	return KindOf(e.Type)
}

// NewEnvelope builds an envelope stamped with at in unix milliseconds. A nil
// payload is omitted from the frame.
func NewEnvelope(typ string, payload any, at time.Time) (Envelope, error) {
	if strings.TrimSpace(typ) == "" {
		return Envelope{}, fmt.Errorf("%w: empty type", ErrMalformedEnvelope)
	}

	env := Envelope{Type: typ, Timestamp: at.UnixMilli()}
	if payload == nil {
		return env, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		env.Payload = raw
		return env, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	env.Payload = raw
	return env, nil
}

func (e Envelope) Encode() ([]byte, error) {
	if strings.TrimSpace(e.Type) == "" {
		return nil, fmt.Errorf("%w: empty type", ErrMalformedEnvelope)
	}
	return json.Marshal(e)
}

// Decode parses a text frame. Frames that are not a JSON object or that carry
// no type are rejected with ErrMalformedEnvelope.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if strings.TrimSpace(env.Type) == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into dst.
func (e Envelope) DecodePayload(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", ErrMalformedEnvelope, e.Type)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return nil
}
