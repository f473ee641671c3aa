package wikitext

import (
	"fmt"
	"regexp"
	"strings"
)

// innermostTemplateRe matches a {{...}} call with no brace inside it, i.e.
// one whose arguments are already expanded.
var innermostTemplateRe = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Invocation is a parsed {{name|arg1|arg2|...}} call. Args keeps source
// order and never includes the name; named arguments stay "key=value".
type Invocation struct {
	Name string
	Args []string
}

// Last returns the final argument, or "" when there are none.
func (inv Invocation) Last() string {
	if len(inv.Args) == 0 {
		return ""
	}
	return inv.Args[len(inv.Args)-1]
}

// Handler turns a template call into text. It carries all template
// semantics; the engine only parses and substitutes.
type Handler interface {
	Expand(inv Invocation) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(inv Invocation) (string, error)

// Expand calls f(inv).
func (f HandlerFunc) Expand(inv Invocation) (string, error) {
	return f(inv)
}

// ExpandTemplates replaces templates with the handler's output, innermost
// first, until a pass changes nothing. Whatever template syntax is left
// afterwards is deleted, so the result never contains "{{" or "}}".
//
// A handler error stops expansion and is returned. If the expansion does not
// settle within DefaultMaxPasses, the partial text is returned together with
// an *UnresolvedError.
func ExpandTemplates(text string, h Handler) (string, error) {
	return ExpandTemplatesN(text, h, DefaultMaxPasses)
}

// ExpandTemplatesN is ExpandTemplates with an explicit pass limit.
func ExpandTemplatesN(text string, h Handler, limit int) (string, error) {
	limit = maxPasses(limit)

	settled := false
	for pass := 0; pass < limit; pass++ {
		var (
			replaced   int
			handlerErr error
		)
		text = innermostTemplateRe.ReplaceAllStringFunc(text, func(m string) string {
			if handlerErr != nil {
				return m
			}
			replaced++
			out, err := expand(m[2:len(m)-2], h)
			if err != nil {
				handlerErr = err
				return m
			}
			return out
		})
		if handlerErr != nil {
			return "", handlerErr
		}
		if replaced == 0 {
			settled = true
			break
		}
	}

	var err error
	if !settled && innermostTemplateRe.MatchString(text) {
		err = &UnresolvedError{Construct: "template", Passes: limit}
	}
	return RemoveTemplates(text), err
}

func expand(body string, h Handler) (string, error) {
	inv, ok := parseInvocation(body)
	if !ok || h == nil {
		return "", nil
	}

	out, err := h.Expand(inv)
	if err != nil {
		return "", fmt.Errorf("expand template %q: %w", inv.Name, err)
	}
	return out, nil
}

// parseInvocation splits a template body on top-level pipes. It reports
// false for an empty body.
func parseInvocation(body string) (Invocation, bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Invocation{}, false
	}

	parts := splitTopLevel(body, '|')
	inv := Invocation{Name: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		inv.Args = append(inv.Args, strings.TrimSpace(p))
	}
	return inv, true
}

// splitTopLevel splits s on sep where it is not nested in a template or a
// link.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		t     depthTracker
		last  = 0
	)
	for i := 0; i < len(s); {
		if n := t.step(s, i); n > 0 {
			i += n
			continue
		}
		if s[i] == sep && t.topLevel() {
			parts = append(parts, s[last:i])
			last = i + 1
		}
		i++
	}
	return append(parts, s[last:])
}

// RemoveTemplates deletes every {{...}} span, including ones that hold
// stray single braces, and then any unmatched "{{" or "}}".
func RemoveTemplates(text string) string {
	for {
		next := removeSpans(text, FindSpans(text, Template))
		next = strings.ReplaceAll(next, Template.Open, "")
		next = strings.ReplaceAll(next, Template.Close, "")
		if next == text {
			return next
		}
		text = next
	}
}
