package survey

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/expr-lang/expr"
)

// DeviceClass is a coarse device category for targeting.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceTablet  DeviceClass = "tablet"
	DeviceMobile  DeviceClass = "mobile"
)

// PageContext describes the page and visitor a survey would be shown to.
// The host adapter supplies it; the engine treats it as read-only.
type PageContext struct {
	// URL is the full page URL the widget is overlaid on.
	URL string

	// UserAgent is the client identity string.
	UserAgent string

	// Device is the visitor's device class, if the host can tell.
	Device DeviceClass

	// Segments are host-assigned visitor segments.
	Segments []string

	// Attributes are free-form visitor/page attributes, exposed to targeting
	// condition expressions.
	Attributes map[string]any
}

// TargetingConfig restricts where and to whom a survey is offered. Empty
// fields match everything; all non-empty fields must match.
type TargetingConfig struct {
	// URLPatterns are glob patterns matched against the page URL path.
	URLPatterns []string `json:"urlPatterns,omitempty"`

	// Segments requires the visitor to carry at least one listed segment.
	Segments []string `json:"segments,omitempty"`

	// Devices restricts to the listed device classes.
	Devices []DeviceClass `json:"devices,omitempty"`

	// Conditions is an expression over the page context attributes, e.g.
	// `pageviews > 3 && plan == "pro"`. It must evaluate to a boolean.
	Conditions string `json:"conditions,omitempty"`
}

// Matches reports whether the page context satisfies the targeting rules.
// A nil config matches everything. A condition expression that fails to
// compile or evaluate counts as a non-match, never an error: mis-authored
// targeting keeps a survey quiet rather than destabilizing the host.
func (t *TargetingConfig) Matches(ctx PageContext) bool {
	if t == nil {
		return true
	}

	if len(t.URLPatterns) > 0 && !t.matchesURL(ctx.URL) {
		return false
	}
	if len(t.Devices) > 0 && !containsDevice(t.Devices, ctx.Device) {
		return false
	}
	if len(t.Segments) > 0 && !intersects(t.Segments, ctx.Segments) {
		return false
	}
	if t.Conditions != "" {
		ok, err := evalCondition(t.Conditions, ctx)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (t *TargetingConfig) matchesURL(raw string) bool {
	target := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		target = u.Path
	}
	for _, pattern := range t.URLPatterns {
		if ok, err := path.Match(pattern, target); err == nil && ok {
			return true
		}
		// Trailing "/*" patterns also match the bare prefix itself.
		if strings.HasSuffix(pattern, "/*") && target == strings.TrimSuffix(pattern, "/*") {
			return true
		}
	}
	return false
}

func evalCondition(condition string, ctx PageContext) (bool, error) {
	env := map[string]any{
		"url":       ctx.URL,
		"userAgent": ctx.UserAgent,
		"device":    string(ctx.Device),
		"segments":  ctx.Segments,
	}
	for k, v := range ctx.Attributes {
		env[k] = v
	}

	program, err := expr.Compile(condition, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile targeting condition: %w", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval targeting condition: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func containsDevice(devices []DeviceClass, d DeviceClass) bool {
	for _, dev := range devices {
		if dev == d {
			return true
		}
	}
	return false
}

func intersects(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}
