package wikitext

import "strings"

// splitNamed parses a "key=value" argument. Keys that contain markup are not
// keys: "[[a=b]]" and "x<span a=b>" stay positional.
func splitNamed(arg string) (key, value string, ok bool) {
	key, value, found := strings.Cut(arg, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, "[]{}<>|") {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// Positional returns the arguments that are not "key=value" pairs.
func (inv Invocation) Positional() []string {
	var out []string
	for _, a := range inv.Args {
		if _, _, named := splitNamed(a); !named {
			out = append(out, a)
		}
	}
	return out
}

// Named returns the "key=value" arguments as a map. A repeated key keeps
// its last value, as MediaWiki does.
func (inv Invocation) Named() map[string]string {
	out := make(map[string]string)
	for _, a := range inv.Args {
		if k, v, ok := splitNamed(a); ok {
			out[k] = v
		}
	}
	return out
}

// Invocations parses the outermost template calls of text in document
// order. Raw parameters are stripped first; arguments keep any nested
// markup unexpanded.
func Invocations(text string) []Invocation {
	text = StripRawParameters(text)

	var out []Invocation
	for _, s := range FindSpans(text, Template) {
		if inv, ok := parseInvocation(text[s.Start+len(Template.Open) : s.End-len(Template.Close)]); ok {
			out = append(out, inv)
		}
	}
	return out
}
