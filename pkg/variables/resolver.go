// Package variables provides placeholder detection and substitution for
// workflow steps and templates.
package variables

import (
	"regexp"

	"github.com/replaykit/replaykit/pkg/models"
)

var (
	curlyPattern   = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
	dollarPattern  = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	bracketPattern = regexp.MustCompile(`\[([A-Z][A-Z0-9_]*)\]`)
)

// Resolve replaces every {{name}} and ${name} occurrence in s with
// params[name]. Unresolved names pass through literally; that is contract,
// not failure.
func Resolve(s string, params map[string]string) string {
	if s == "" || len(params) == 0 {
		return s
	}

	resolved := curlyPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := curlyPattern.FindStringSubmatch(match)[1]
		if value, ok := params[name]; ok {
			return value
		}

		return match
	})

	return dollarPattern.ReplaceAllStringFunc(resolved, func(match string) string {
		name := dollarPattern.FindStringSubmatch(match)[1]
		if value, ok := params[name]; ok {
			return value
		}

		return match
	})
}

// Names extracts the distinct variable names referenced by s in any of the
// three supported syntaxes: {{name}}, ${name}, [NAME]. Order of first
// occurrence is preserved; a name used under several syntaxes appears once.
func Names(s string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	collect := func(matches [][]string) {
		for _, m := range matches {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}

	collect(curlyPattern.FindAllStringSubmatch(s, -1))
	collect(dollarPattern.FindAllStringSubmatch(s, -1))
	collect(bracketPattern.FindAllStringSubmatch(s, -1))

	return names
}

// ResolveStep returns a copy of step with its target and every string field
// of its payload resolved against params. Group children are resolved
// recursively.
func ResolveStep(step models.Step, params map[string]string) models.Step {
	resolved := step
	resolved.Target = Resolve(step.Target, params)

	switch step.Type {
	case models.StepTypeNavigation:
		if step.Navigation != nil {
			data := *step.Navigation
			data.URL = Resolve(data.URL, params)
			resolved.Navigation = &data
		}
	case models.StepTypeInput:
		if step.Input != nil {
			data := *step.Input
			data.Value = Resolve(data.Value, params)
			resolved.Input = &data
		}
	case models.StepTypeWait:
		if step.Wait != nil {
			data := *step.Wait
			data.Text = Resolve(data.Text, params)
			resolved.Wait = &data
		}
	case models.StepTypeValidate:
		if step.Validate != nil {
			data := *step.Validate
			data.Expected = Resolve(data.Expected, params)
			resolved.Validate = &data
		}
	case models.StepTypeGroup:
		if step.Group != nil {
			data := models.GroupData{
				Children: make([]models.Step, len(step.Group.Children)),
				Parallel: step.Group.Parallel,
				Reason:   step.Group.Reason,
			}
			for i, child := range step.Group.Children {
				data.Children[i] = ResolveStep(child, params)
			}

			resolved.Group = &data
		}
	case models.StepTypeClick, models.StepTypeExtract:
	}

	return resolved
}
