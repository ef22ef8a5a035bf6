package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PIR is a property identifier reference: the field ids along a dotted
// property path. Unlike the path itself it survives field renames.
type PIR []string

// ParsePIR parses the dotted wire form "id1.id2".
func ParsePIR(s string) (PIR, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid property id %q: empty segment", s)
		}
	}
	return PIR(parts), nil
}

func (p PIR) String() string {
	return strings.Join(p, ".")
}

// MarshalJSON encodes the PIR in its dotted string form.
func (p PIR) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes the dotted string form.
func (p *PIR) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("property id must be a string: %w", err)
	}
	parsed, err := ParsePIR(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
