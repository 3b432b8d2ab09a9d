package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SGPAEntry is one semester grade-point value.
type SGPAEntry struct {
	Key   string
	Value float64
}

// SGPA keeps semester grade points in the order they appeared on the
// summary line. It encodes as a JSON object with keys in that order.
type SGPA []SGPAEntry

// Get returns the value stored under key.
func (s SGPA) Get(key string) (float64, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Value, true
		}
	}
	return 0, false
}

// Keys returns the keys in insertion order.
func (s SGPA) Keys() []string {
	keys := make([]string, len(s))
	for i, e := range s {
		keys[i] = e.Key
	}
	return keys
}

func (s SGPA) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(e.Value, 'f', 2, 64))
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (s *SGPA) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sgpa: expected object, got %v", tok)
	}
	out := SGPA{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("sgpa: expected key, got %v", kt)
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("sgpa: value for %q: %w", key, err)
		}
		v, err := n.Float64()
		if err != nil {
			return fmt.Errorf("sgpa: value for %q: %w", key, err)
		}
		out = append(out, SGPAEntry{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}
