package entities

import (
	"fmt"
	"strings"
	"time"
)

// Strategy is the lookup kind of one identity node
type Strategy int

const (
	ById Strategy = iota
	ByClassName
	ByCssSelector
	ByLinkText
	ByName
	ByPartialLinkText
	ByTagName
	ByXPath
)

var strategyToString = map[Strategy]string{
	ById:              "id",
	ByClassName:       "class",
	ByCssSelector:     "css",
	ByLinkText:        "link_text",
	ByName:            "name",
	ByPartialLinkText: "partial_link_text",
	ByTagName:         "tag",
	ByXPath:           "xpath",
}

var strategyFromString = map[string]Strategy{
	"id":                ById,
	"class":             ByClassName,
	"classname":         ByClassName,
	"css":               ByCssSelector,
	"link_text":         ByLinkText,
	"linktext":          ByLinkText,
	"name":              ByName,
	"partial_link_text": ByPartialLinkText,
	"partiallinktext":   ByPartialLinkText,
	"tag":               ByTagName,
	"tagname":           ByTagName,
	"xpath":             ByXPath,
}

func (s Strategy) String() string {
	if v, ok := strategyToString[s]; ok {
		return v
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// MarshalText - encodes the strategy by name
func (s Strategy) MarshalText() ([]byte, error) {
	v, ok := strategyToString[s]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %d", int(s))
	}
	return []byte(v), nil
}

// UnmarshalText - decodes a strategy name, case-insensitive
func (s *Strategy) UnmarshalText(b []byte) error {
	v, ok := strategyFromString[strings.ToLower(strings.TrimSpace(string(b)))]
	if !ok {
		return fmt.Errorf("unknown strategy %q", string(b))
	}
	*s = v
	return nil
}

// IsLinkText reports whether the strategy matches anchor text
func (s Strategy) IsLinkText() bool {
	return s == ByLinkText || s == ByPartialLinkText
}

// Scope is the search scope relative to the search root
type Scope int

const (
	Descendants Scope = iota
	Sibling
	Ancestor
	Children
)

var scopeToString = map[Scope]string{
	Descendants: "descendants",
	Sibling:     "sibling",
	Ancestor:    "ancestor",
	Children:    "children",
}

func (s Scope) String() string {
	if v, ok := scopeToString[s]; ok {
		return v
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// MarshalText - encodes the scope by name
func (s Scope) MarshalText() ([]byte, error) {
	v, ok := scopeToString[s]
	if !ok {
		return nil, fmt.Errorf("unknown scope %d", int(s))
	}
	return []byte(v), nil
}

// UnmarshalText - decodes a scope name, case-insensitive
func (s *Scope) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range scopeToString {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown scope %q", string(b))
}

// IdentityNode describes one lookup step of a chain
type IdentityNode struct {
	Strategy      Strategy       `json:"strategy" yaml:"strategy"`
	Identifier    string         `json:"identifier" yaml:"identifier"`
	Scope         Scope          `json:"scope" yaml:"scope"`
	Index         *int           `json:"index,omitempty" yaml:"index,omitempty"`
	Timeout       time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RetryAttempts int            `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty"`
	RetryInterval time.Duration  `json:"retry_interval,omitempty" yaml:"retry_interval,omitempty"`
	Frames        FrameHierarchy `json:"frames,omitempty" yaml:"frames,omitempty"`

	// AvailableIdentifiers holds candidate identifiers per strategy, captured
	// at authoring time. Resolution never reads it.
	AvailableIdentifiers map[Strategy]string `json:"available_identifiers,omitempty" yaml:"available_identifiers,omitempty"`

	// ClickPolicy picks the clickable point inside the element's box.
	// Nil means the centre.
	ClickPolicy ClickPointPolicy `json:"-" yaml:"-"`
}

// IndexOf returns a pointer suitable for IdentityNode.Index
func IndexOf(i int) *int {
	return &i
}

// SetStrategy - changes the strategy and fills Identifier from
// AvailableIdentifiers when a candidate was recorded for it
func (n *IdentityNode) SetStrategy(s Strategy) {
	n.Strategy = s
	if id, ok := n.AvailableIdentifiers[s]; ok {
		n.Identifier = id
	}
}

// Validate - checks the node invariants that can be decided without a document
func (n IdentityNode) Validate() error {
	if _, ok := strategyToString[n.Strategy]; !ok {
		return n.fail("validate", ErrInvalidNode, "unknown strategy")
	}
	if strings.TrimSpace(n.Identifier) == "" {
		return n.fail("validate", ErrInvalidNode, "empty identifier")
	}
	if n.Timeout < 0 || n.RetryInterval < 0 || n.RetryAttempts < 0 {
		return n.fail("validate", ErrInvalidNode, "negative timeout or retry setting")
	}
	switch n.Scope {
	case Descendants:
	case Sibling:
		if n.Strategy.IsLinkText() {
			return n.fail("validate", ErrUnsupportedConversion, "link text cannot be matched among siblings")
		}
	case Ancestor:
		if n.Index != nil {
			return n.fail("validate", ErrUnsupportedScope, "index cannot be combined with ancestor scope")
		}
		if n.Strategy.IsLinkText() {
			return n.fail("validate", ErrUnsupportedConversion, "link text cannot be matched among ancestors")
		}
	case Children:
		return n.fail("validate", ErrUnsupportedScope, "children scope is not supported")
	default:
		return n.fail("validate", ErrInvalidNode, "unknown scope")
	}
	for i, f := range n.Frames {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

func (n IdentityNode) String() string {
	s := fmt.Sprintf("%s=%q (%s)", n.Strategy, n.Identifier, n.Scope)
	if n.Index != nil {
		s += fmt.Sprintf("[%d]", *n.Index)
	}
	return s
}

func (n IdentityNode) fail(op string, kind error, detail string) error {
	return &LookupError{
		Op:         op,
		Strategy:   n.Strategy,
		Identifier: n.Identifier,
		Scope:      n.Scope,
		Err:        fmt.Errorf("%w: %s", kind, detail),
	}
}

// Chain is an ordered, immutable sequence of identity nodes. Each node's
// result is the search root of the next one.
type Chain struct {
	nodes []IdentityNode
}

// NewChain - builds a chain, validating every node
func NewChain(nodes ...IdentityNode) (Chain, error) {
	if len(nodes) == 0 {
		return Chain{}, fmt.Errorf("%w: empty chain", ErrInvalidNode)
	}
	for i, n := range nodes {
		if err := n.Validate(); err != nil {
			return Chain{}, fmt.Errorf("node %d: %w", i, err)
		}
	}
	cp := make([]IdentityNode, len(nodes))
	copy(cp, nodes)
	return Chain{nodes: cp}, nil
}

// MustChain is NewChain for statically known chains
func MustChain(nodes ...IdentityNode) Chain {
	c, err := NewChain(nodes...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of nodes
func (c Chain) Len() int { return len(c.nodes) }

// IsZero reports whether the chain was never built
func (c Chain) IsZero() bool { return len(c.nodes) == 0 }

// Head returns the first node
func (c Chain) Head() IdentityNode {
	if len(c.nodes) == 0 {
		return IdentityNode{}
	}
	return c.nodes[0]
}

// Node returns the i-th node
func (c Chain) Node(i int) IdentityNode { return c.nodes[i] }

// Nodes returns a copy of the nodes in chain order
func (c Chain) Nodes() []IdentityNode {
	cp := make([]IdentityNode, len(c.nodes))
	copy(cp, c.nodes)
	return cp
}

// Frames returns the frame hierarchy the whole chain is resolved in
func (c Chain) Frames() FrameHierarchy {
	return c.Head().Frames
}

// Validate - re-checks every node; a zero Chain is invalid
func (c Chain) Validate() error {
	if len(c.nodes) == 0 {
		return fmt.Errorf("%w: empty chain", ErrInvalidNode)
	}
	for i, n := range c.nodes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
	}
	return nil
}
