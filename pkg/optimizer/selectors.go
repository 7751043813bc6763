package optimizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/replaykit/replaykit/pkg/models"
)

var classSelectorPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9]*)?\.([A-Za-z_-][\w-]*)`)

// HardenSelectors rewrites each step's target to prefer stable attributes
// over fragile class chains. Best-effort string rewriting only; the action
// set never changes, only the addressing strategy.
func HardenSelectors(steps []models.Step) []models.Step {
	result := make([]models.Step, len(steps))

	for i, step := range steps {
		hardened := step
		hardened.Target = hardenSelector(step.Target, step.Context)

		if step.Type == models.StepTypeGroup && step.Group != nil {
			group := *step.Group
			group.Children = HardenSelectors(step.Group.Children)
			hardened.Group = &group
		}

		result[i] = hardened
	}

	return result
}

func hardenSelector(selector string, captureContext map[string]any) string {
	if selector == "" {
		return selector
	}

	// Stable capture attributes win over whatever selector was recorded.
	if testID, ok := captureContext["data-testid"].(string); ok && testID != "" {
		return fmt.Sprintf(`[data-testid=%q]`, testID)
	}

	if id, ok := captureContext["element_id"].(string); ok && id != "" {
		return "#" + id
	}

	hardened := selector

	// Class chains churn with every style refactor; a substring match on the
	// first class survives suffix hashing (e.g. css-modules).
	if match := classSelectorPattern.FindStringSubmatch(selector); match != nil && !strings.HasPrefix(selector, "#") {
		class := match[2]
		if base := stableClassBase(class); base != "" {
			hardened = fmt.Sprintf(`%s[class*=%q]`, match[1], base)
		}
	}

	if text, ok := captureContext["text"].(string); ok && text != "" && len(text) <= 40 {
		hardened = fmt.Sprintf(`%s:contains(%q)`, hardened, strings.TrimSpace(text))
	}

	return hardened
}

// stableClassBase strips generated-looking suffixes (trailing digits or hash
// fragments after the last dash) from a class name.
func stableClassBase(class string) string {
	if idx := strings.LastIndex(class, "-"); idx > 0 {
		suffix := class[idx+1:]
		if looksGenerated(suffix) {
			return class[:idx]
		}
	}

	return class
}

func looksGenerated(s string) bool {
	if s == "" {
		return false
	}

	digits := 0

	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}

	return digits*2 >= len(s)
}

func looksLikeLink(step models.Step) bool {
	if tag, ok := step.Context["tag"].(string); ok && strings.EqualFold(tag, "a") {
		return true
	}

	target := strings.ToLower(step.Target)

	return strings.HasPrefix(target, "a.") || strings.HasPrefix(target, "a#") ||
		strings.HasPrefix(target, "a[") || target == "a" ||
		strings.Contains(target, "[href") || strings.Contains(target, "link")
}

func looksLikeSubmit(selector string) bool {
	lowered := strings.ToLower(selector)

	return strings.Contains(lowered, "submit") ||
		strings.Contains(lowered, "button") ||
		strings.Contains(lowered, `type="button"`)
}
