// Package rodsurface implements the browser control surface on top of a real
// Chromium instance driven through go-rod.
package rodsurface

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/replaykit/replaykit/pkg/browser"
)

// Surface drives one browser page. It is not safe for concurrent executions;
// create one Surface per execution.
type Surface struct {
	browser *rod.Browser
	page    *rod.Page
	logger  *slog.Logger
}

// New launches a Chromium instance and opens a blank page.
func New(ctx context.Context, headless bool, logger *slog.Logger) (*Surface, error) {
	controlURL, err := launcher.New().
		Leakless(true).
		Headless(headless).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &Surface{
		browser: b,
		page:    page,
		logger:  logger.With("module", "rod_surface"),
	}, nil
}

// NewWithPage wraps an already-open page, for embedding in a larger session.
func NewWithPage(page *rod.Page, logger *slog.Logger) *Surface {
	return &Surface{
		page:   page,
		logger: logger.With("module", "rod_surface"),
	}
}

func (s *Surface) Close() error {
	if s.browser == nil {
		return nil
	}

	return s.browser.Close()
}

func (s *Surface) Navigate(ctx context.Context, req browser.NavigateRequest) (browser.NavigateResult, error) {
	page := s.page.Context(ctx)

	if err := page.Navigate(req.URL); err != nil {
		return browser.NavigateResult{}, fmt.Errorf("failed to navigate to %s: %w", req.URL, err)
	}

	if err := page.WaitLoad(); err != nil {
		return browser.NavigateResult{}, fmt.Errorf("failed to wait for page load: %w", err)
	}

	info, err := page.Info()
	if err != nil {
		return browser.NavigateResult{Success: true, URL: req.URL}, nil
	}

	return browser.NavigateResult{Success: true, URL: info.URL}, nil
}

func (s *Surface) Click(ctx context.Context, req browser.ClickRequest) (browser.ClickResult, error) {
	el, err := s.element(ctx, req.Selector)
	if err != nil {
		return browser.ClickResult{Success: false, Error: err.Error()}, nil
	}

	button := proto.InputMouseButtonLeft
	if req.Button == "right" {
		button = proto.InputMouseButtonRight
	}

	clicks := 1
	if req.DoubleClick {
		clicks = 2
	}

	if err := el.Click(button, clicks); err != nil {
		// Overlapped or off-screen elements reject native clicks; a DOM
		// click still reaches the handler.
		s.logger.Debug("native click failed, falling back to JS", "selector", req.Selector, "error", err)

		if _, jsErr := el.Eval(`() => this.click()`); jsErr != nil {
			return browser.ClickResult{Success: false, Error: jsErr.Error()}, nil
		}
	}

	return browser.ClickResult{Success: true, Element: req.Selector}, nil
}

func (s *Surface) Input(ctx context.Context, req browser.InputRequest) (browser.InputResult, error) {
	el, err := s.element(ctx, req.Selector)
	if err != nil {
		return browser.InputResult{Success: false, Error: err.Error()}, nil
	}

	if req.Clear {
		if err := el.SelectAllText(); err != nil {
			s.logger.Debug("failed to select text before input", "selector", req.Selector, "error", err)
		}
	}

	if err := el.Input(req.Value); err != nil {
		return browser.InputResult{Success: false, Error: err.Error()}, nil
	}

	if req.Validate {
		text, err := el.Text()
		if err == nil && !strings.Contains(text, req.Value) {
			value, propErr := el.Property("value")
			if propErr != nil || !strings.Contains(value.String(), req.Value) {
				return browser.InputResult{Success: false, Error: "input value not reflected in element"}, nil
			}
		}
	}

	return browser.InputResult{Success: true, Value: req.Value}, nil
}

func (s *Surface) CheckCondition(ctx context.Context, req browser.ConditionRequest) (bool, error) {
	page := s.page.Context(ctx)

	switch req.Condition {
	case "element_visible":
		has, el, err := page.Has(req.Selector)
		if err != nil || !has {
			return false, err
		}

		visible, err := el.Visible()
		if err != nil {
			return false, err
		}

		return visible, nil
	case "page_load":
		result, err := page.Eval(`() => document.readyState`)
		if err != nil {
			return false, err
		}

		return result.Value.String() == "complete", nil
	case "text_present":
		result, err := page.Eval(`(text) => document.body.innerText.includes(text)`, req.Text)
		if err != nil {
			return false, err
		}

		return result.Value.Bool(), nil
	default:
		return false, fmt.Errorf("unsupported condition: %s", req.Condition)
	}
}

func (s *Surface) Extract(ctx context.Context, req browser.ExtractRequest) (any, error) {
	el, err := s.element(ctx, req.Selector)
	if err != nil {
		return nil, err
	}

	if req.Attribute != "" && req.Attribute != "text" {
		attr, err := el.Attribute(req.Attribute)
		if err != nil {
			return nil, fmt.Errorf("failed to read attribute %s: %w", req.Attribute, err)
		}

		if attr == nil {
			return "", nil
		}

		return *attr, nil
	}

	text, err := el.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to read element text: %w", err)
	}

	return text, nil
}

func (s *Surface) Validate(ctx context.Context, req browser.ValidateRequest) (browser.ValidateResult, error) {
	switch req.Assertion {
	case "exists":
		has, _, err := s.page.Context(ctx).Has(req.Selector)
		if err != nil {
			return browser.ValidateResult{Success: false, Error: err.Error()}, nil
		}

		return browser.ValidateResult{Success: has}, nil
	case "text_equals", "":
		el, err := s.element(ctx, req.Selector)
		if err != nil {
			return browser.ValidateResult{Success: false, Error: err.Error()}, nil
		}

		text, err := el.Text()
		if err != nil {
			return browser.ValidateResult{Success: false, Error: err.Error()}, nil
		}

		return browser.ValidateResult{
			Success: strings.TrimSpace(text) == strings.TrimSpace(req.Expected),
			Actual:  text,
		}, nil
	default:
		return browser.ValidateResult{}, fmt.Errorf("unsupported assertion: %s", req.Assertion)
	}
}

func (s *Surface) element(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element %s not found: %w", selector, err)
	}

	return el, nil
}
