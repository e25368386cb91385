package resolver

import (
	"fmt"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// PickOne - reduces candidates to one element. With an index the element at
// that position is returned; without one exactly one candidate is required.
func PickOne(candidates []interfaces.Element, index *int) (interfaces.Element, error) {
	if index != nil {
		if *index < 0 || *index >= len(candidates) {
			return nil, fmt.Errorf("%w: index %d, %d candidates", entities.ErrIndexOutOfRange, *index, len(candidates))
		}
		return candidates[*index], nil
	}
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: no candidates", entities.ErrNotFound)
	case 1:
		return candidates[0], nil
	default:
		return nil, fmt.Errorf("%w: %d candidates and no index", entities.ErrAmbiguousMatch, len(candidates))
	}
}
