// Package browser defines the abstract contract between the engine and the
// browser control surface. Every primitive is a typed request/response call
// carrying its own context; callers attach per-request timeouts.
package browser

import "context"

type NavigateRequest struct {
	URL     string `json:"url"`
	WaitFor string `json:"wait_for,omitempty"`
}

type NavigateResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

type ClickRequest struct {
	Selector    string `json:"selector"`
	Button      string `json:"button,omitempty"`
	DoubleClick bool   `json:"double_click,omitempty"`
}

type ClickResult struct {
	Success bool   `json:"success"`
	Element string `json:"element,omitempty"`
	Error   string `json:"error,omitempty"`
}

type InputRequest struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
	Clear    bool   `json:"clear,omitempty"`
	Validate bool   `json:"validate,omitempty"`
}

type InputResult struct {
	Success bool   `json:"success"`
	Value   string `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ConditionRequest struct {
	Condition string `json:"condition"`
	Selector  string `json:"selector,omitempty"`
	Text      string `json:"text,omitempty"`
}

type ExtractRequest struct {
	Selector  string `json:"selector"`
	Attribute string `json:"attribute,omitempty"`
}

type ValidateRequest struct {
	Selector  string `json:"selector"`
	Assertion string `json:"assertion"`
	Expected  string `json:"expected,omitempty"`
}

type ValidateResult struct {
	Success bool   `json:"success"`
	Actual  string `json:"actual,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Surface is the browser control surface. One request resolves to exactly
// one response or the context's deadline.
type Surface interface {
	Navigate(ctx context.Context, req NavigateRequest) (NavigateResult, error)
	Click(ctx context.Context, req ClickRequest) (ClickResult, error)
	Input(ctx context.Context, req InputRequest) (InputResult, error)
	CheckCondition(ctx context.Context, req ConditionRequest) (bool, error)
	Extract(ctx context.Context, req ExtractRequest) (any, error)
	Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error)
}
