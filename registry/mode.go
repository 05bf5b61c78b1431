package registry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode is the shutdown policy of a database.
type Mode uint32

const (
	// Init marks databases found disallowing connections at server start. No watcher is attached.
	Init Mode = iota
	// Normal refuses new connections and lets existing sessions finish.
	Normal
	// Abort refuses new connections, ends every session and checkpoints.
	Abort
	// Immediate refuses new connections and ends every session.
	Immediate
	// Transactional refuses new connections and ends sessions once they leave their transaction.
	Transactional
)

var modeNames = map[Mode]string{
	Init:          "INIT",
	Normal:        "NORMAL",
	Abort:         "ABORT",
	Immediate:     "IMMEDIATE",
	Transactional: "TRANSACTIONAL",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", uint32(m))
}

// Requestable reports whether operators may ask for this mode.
func (m Mode) Requestable() bool {
	return m >= Normal && m <= Transactional
}

// ParseMode parses a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return 0, &ErrInvalidMode{Mode: s}
}

// MarshalJSON encodes the mode as its name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
