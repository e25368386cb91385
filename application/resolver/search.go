package resolver

import (
	"context"
	"fmt"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// Searcher performs one scope-specific match against a DocumentProvider
type Searcher struct {
	provider interfaces.DocumentProvider
}

// NewSearcher - creates a searcher over provider
func NewSearcher(provider interfaces.DocumentProvider) *Searcher {
	return &Searcher{provider: provider}
}

// FindOne - resolves node to exactly one element relative to root
func (s *Searcher) FindOne(ctx context.Context, node entities.IdentityNode, root interfaces.Element) (interfaces.Element, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}

	switch node.Scope {
	case entities.Descendants:
		if node.Index == nil {
			el, err := s.provider.FindOne(ctx, root, node.Strategy, node.Identifier, node.Timeout)
			if err != nil {
				return nil, entities.NewLookupError("find", node, err)
			}
			return el, nil
		}
		candidates, err := s.provider.FindAll(ctx, root, node.Strategy, node.Identifier, node.Timeout)
		if err != nil {
			return nil, entities.NewLookupError("find", node, err)
		}
		return pick(node, candidates)

	case entities.Sibling:
		candidates, err := s.siblings(ctx, node, root)
		if err != nil {
			return nil, entities.NewLookupError("find", node, err)
		}
		return pick(node, candidates)

	case entities.Ancestor:
		el, err := s.ancestor(ctx, node, root)
		if err != nil {
			return nil, entities.NewLookupError("find", node, err)
		}
		return el, nil
	}

	return nil, entities.NewLookupError("find", node, entities.ErrUnsupportedScope)
}

// FindAll - returns every match of node relative to root. Only descendant
// and sibling scopes can produce more than one element.
func (s *Searcher) FindAll(ctx context.Context, node entities.IdentityNode, root interfaces.Element) ([]interfaces.Element, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}

	var (
		found []interfaces.Element
		err   error
	)
	switch node.Scope {
	case entities.Descendants:
		found, err = s.provider.FindAll(ctx, root, node.Strategy, node.Identifier, node.Timeout)
	case entities.Sibling:
		found, err = s.siblings(ctx, node, root)
	default:
		err = fmt.Errorf("%w: %s scope cannot return multiple elements", entities.ErrUnsupportedScope, node.Scope)
	}
	if err != nil {
		return nil, entities.NewLookupError("find all", node, err)
	}
	if found == nil {
		found = []interfaces.Element{}
	}
	return found, nil
}

func (s *Searcher) siblings(ctx context.Context, node entities.IdentityNode, root interfaces.Element) ([]interfaces.Element, error) {
	if root == nil {
		return nil, entities.ErrMissingAnchor
	}
	if node.Strategy == entities.ByXPath {
		return s.provider.FindAll(ctx, root, entities.ByXPath, node.Identifier, node.Timeout)
	}
	selector, err := ToSelector(node.Strategy, node.Identifier)
	if err != nil {
		return nil, err
	}
	return s.provider.EvaluateSiblings(ctx, root, selector)
}

func (s *Searcher) ancestor(ctx context.Context, node entities.IdentityNode, root interfaces.Element) (interfaces.Element, error) {
	if root == nil {
		return nil, entities.ErrMissingAnchor
	}
	if node.Strategy == entities.ByXPath {
		return s.provider.FindOne(ctx, root, entities.ByXPath, node.Identifier, node.Timeout)
	}
	selector, err := ToSelector(node.Strategy, node.Identifier)
	if err != nil {
		return nil, err
	}
	return s.provider.EvaluateAncestor(ctx, root, selector)
}

// pick applies the disambiguator. An empty candidate set is a transient
// miss even when an index is configured: ErrNotFound, retried, rather than
// ErrIndexOutOfRange, since the candidates may still be loading.
func pick(node entities.IdentityNode, candidates []interfaces.Element) (interfaces.Element, error) {
	if len(candidates) == 0 {
		return nil, entities.NewLookupError("find", node, fmt.Errorf("%w: no candidates", entities.ErrNotFound))
	}
	el, err := PickOne(candidates, node.Index)
	if err != nil {
		return nil, entities.NewLookupError("disambiguate", node, err)
	}
	return el, nil
}
