package conversation

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"strconv"
	"time"

	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleAssistant, RoleUser:
		return true
	}
	return false
}

// Message is a single entry of a session's log for one feature mode.
type Message struct {
	ID          string      `json:"id" yaml:"id"`
	SessionID   string      `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Role        Role        `json:"role" yaml:"role"`
	Content     string      `json:"content" yaml:"content"`
	Timestamp   time.Time   `json:"timestamp" yaml:"timestamp"`
	FeatureType FeatureMode `json:"feature_type" yaml:"feature_type"`
}

type MessageOption func(*Message)

func WithID(id string) MessageOption {
	return func(m *Message) {
		m.ID = id
	}
}

func WithSessionID(sessionID string) MessageOption {
	return func(m *Message) {
		m.SessionID = sessionID
	}
}

func WithTimestamp(t time.Time) MessageOption {
	return func(m *Message) {
		m.Timestamp = t
	}
}

// NewMessage builds a locally generated message. Empty role and feature fall
// back to assistant and chat.
func NewMessage(role Role, content string, feature FeatureMode, options ...MessageOption) *Message {
	now := time.Now()
	if role == "" {
		role = RoleAssistant
	}
	if feature == "" {
		feature = FeatureChat
	}
	ret := &Message{
		ID:          NewMessageID(now),
		Role:        role,
		Content:     content,
		Timestamp:   now,
		FeatureType: feature,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewMessageID returns the unix milliseconds of t followed by nine random
// base36 characters.
func NewMessageID(t time.Time) string {
	var buf bytes.Buffer
	buf.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < 9; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		buf.WriteByte(base36[n.Int64()])
	}
	return buf.String()
}

func (m *Message) Validate() error {
	if m == nil {
		return errors.New("message is nil")
	}
	if !m.Role.Valid() {
		return errors.Errorf("invalid role %q", m.Role)
	}
	return nil
}

func (m *Message) Clone() *Message {
	return clone.Clone(m).(*Message)
}

// wireMessage is the shape the backend sends. Pointers distinguish a missing
// or null field from an empty one.
type wireMessage struct {
	ID          json.RawMessage `json:"id"`
	SessionID   string          `json:"session_id"`
	Role        *string         `json:"role"`
	Content     *string         `json:"content"`
	Timestamp   string          `json:"timestamp"`
	FeatureType string          `json:"feature_type"`
}

var ErrInvalidMessage = errors.New("invalid message")

// DecodeMessage validates and decodes a message received from the backend.
// A message needs a role and a content string (which may be empty). Missing
// ids and timestamps are filled in locally.
func DecodeMessage(raw json.RawMessage) (*Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.Wrap(ErrInvalidMessage, "not an object")
	}

	var w wireMessage
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, errors.Wrapf(ErrInvalidMessage, "could not decode: %v", err)
	}
	if w.Role == nil || *w.Role == "" {
		return nil, errors.Wrap(ErrInvalidMessage, "missing role")
	}
	if w.Content == nil {
		return nil, errors.Wrap(ErrInvalidMessage, "missing content")
	}

	ret := &Message{
		SessionID:   w.SessionID,
		Role:        Role(*w.Role),
		Content:     *w.Content,
		FeatureType: FeatureMode(w.FeatureType),
	}
	if !ret.Role.Valid() {
		return nil, errors.Wrapf(ErrInvalidMessage, "unknown role %q", *w.Role)
	}

	ret.ID = decodeID(w.ID)
	now := time.Now()
	if ret.ID == "" {
		ret.ID = NewMessageID(now)
	}
	ret.Timestamp = ParseTimestamp(w.Timestamp, now)
	if ret.FeatureType == "" {
		ret.FeatureType = FeatureChat
	}

	return ret, nil
}

// DecodeMessages decodes a list of messages, dropping every invalid element.
// It returns the number of dropped elements.
func DecodeMessages(raw []json.RawMessage) ([]*Message, int) {
	ret := make([]*Message, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		m, err := DecodeMessage(r)
		if err != nil {
			dropped++
			continue
		}
		ret = append(ret, m)
	}
	return ret, dropped
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp accepts RFC3339 and the zone-less ISO forms the backend
// emits (interpreted as UTC). Unparseable values yield fallback.
func ParseTimestamp(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
