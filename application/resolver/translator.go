package resolver

import (
	"fmt"
	"strings"

	"ui_automation/domain/entities"
)

// ToSelector - converts a single-strategy lookup into the equivalent CSS
// selector, for scopes that match by selector instead of native lookup
func ToSelector(strategy entities.Strategy, identifier string) (string, error) {
	switch strategy {
	case entities.ById:
		return "#" + identifier, nil
	case entities.ByClassName:
		return "." + identifier, nil
	case entities.ByName:
		return "[name='" + identifier + "']", nil
	case entities.ByCssSelector, entities.ByTagName:
		return identifier, nil
	default:
		return "", fmt.Errorf("%w: %s has no selector form", entities.ErrUnsupportedConversion, strategy)
	}
}

// FrameHostSelector - matches a frame host whose name or id equals
// identifier, the rule every provider applies in SwitchToFrameByName
func FrameHostSelector(identifier string) string {
	q := `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(identifier) + `"`
	return fmt.Sprintf(`iframe[name=%[1]s], frame[name=%[1]s], iframe[id=%[1]s], frame[id=%[1]s]`, q)
}
