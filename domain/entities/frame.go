package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// FrameStrategy selects how a frame is entered
type FrameStrategy int

const (
	FrameById FrameStrategy = iota
	FrameByName
	FrameByIndex
	FrameByCssSelector
	FrameByXPath
)

var frameStrategyToString = map[FrameStrategy]string{
	FrameById:          "id",
	FrameByName:        "name",
	FrameByIndex:       "index",
	FrameByCssSelector: "css",
	FrameByXPath:       "xpath",
}

func (s FrameStrategy) String() string {
	if v, ok := frameStrategyToString[s]; ok {
		return v
	}
	return fmt.Sprintf("frame_strategy(%d)", int(s))
}

// MarshalText - encodes the frame strategy by name
func (s FrameStrategy) MarshalText() ([]byte, error) {
	v, ok := frameStrategyToString[s]
	if !ok {
		return nil, fmt.Errorf("unknown frame strategy %d", int(s))
	}
	return []byte(v), nil
}

// UnmarshalText - decodes a frame strategy name
func (s *FrameStrategy) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range frameStrategyToString {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown frame strategy %q", string(b))
}

// FrameDescriptor identifies one frame inside its parent document
type FrameDescriptor struct {
	Strategy   FrameStrategy `json:"strategy" yaml:"strategy"`
	Identifier string        `json:"identifier" yaml:"identifier"`
}

// Ordinal returns the frame index of a FrameByIndex descriptor
func (f FrameDescriptor) Ordinal() (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(f.Identifier))
	if err != nil {
		return 0, fmt.Errorf("%w: frame index %q is not a number", ErrInvalidNode, f.Identifier)
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: frame index %d is negative", ErrInvalidNode, i)
	}
	return i, nil
}

// Validate - checks that the descriptor can be used for switching
func (f FrameDescriptor) Validate() error {
	if _, ok := frameStrategyToString[f.Strategy]; !ok {
		return fmt.Errorf("%w: unknown frame strategy", ErrInvalidNode)
	}
	if f.Strategy == FrameByIndex {
		_, err := f.Ordinal()
		return err
	}
	if strings.TrimSpace(f.Identifier) == "" {
		return fmt.Errorf("%w: empty frame identifier", ErrInvalidNode)
	}
	return nil
}

func (f FrameDescriptor) String() string {
	return f.Strategy.String() + "=" + f.Identifier
}

// FrameHierarchy is the ordered path of frames from the top document down
type FrameHierarchy []FrameDescriptor

// Equal reports positional equality. Nil and empty hierarchies are equal.
func (h FrameHierarchy) Equal(other FrameHierarchy) bool {
	if len(h) != len(other) {
		return false
	}
	for i := range h {
		if h[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy
func (h FrameHierarchy) Clone() FrameHierarchy {
	if h == nil {
		return nil
	}
	cp := make(FrameHierarchy, len(h))
	copy(cp, h)
	return cp
}

func (h FrameHierarchy) String() string {
	if len(h) == 0 {
		return "<top>"
	}
	parts := make([]string, len(h))
	for i, f := range h {
		parts[i] = f.String()
	}
	return strings.Join(parts, " > ")
}
