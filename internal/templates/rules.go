package templates

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

//go:embed default_rules.yaml
var defaultRules []byte

// ErrInvalidRule is wrapped by every rule validation error.
var ErrInvalidRule = errors.New("invalid template rule")

// Rule says how the templates in Names render.
type Rule struct {
	Names  []string `yaml:"names"`
	Kind   Kind     `yaml:"kind"`
	Label  string   `yaml:"label,omitempty"`
	Format string   `yaml:"format,omitempty"`
	Text   string   `yaml:"text,omitempty"`

	// SuppressIfLastArgContains drops the template when its last argument
	// contains this substring.
	SuppressIfLastArgContains string `yaml:"suppress_if_last_arg_contains,omitempty"`
}

// ruleFile is the YAML document layout.
type ruleFile struct {
	Unknown UnknownPolicy `yaml:"unknown"`
	Rules   []Rule        `yaml:"rules"`
}

// Registry looks up rules by template name. It is immutable once built and
// safe for concurrent use.
type Registry struct {
	unknown UnknownPolicy
	rules   map[string]*Rule
}

var _ wikitext.Handler = (*Registry)(nil)

// Parse builds a Registry from a YAML rule document.
func Parse(data []byte) (*Registry, error) {
	var f ruleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return newRegistry(f.Unknown, f.Rules)
}

// LoadFile reads a rule file from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Default returns the built-in rules.
func Default() *Registry {
	reg, err := Parse(defaultRules)
	if err != nil {
		panic("templates: built-in rules: " + err.Error())
	}
	return reg
}

// Load returns the rules in path, or the built-in rules when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// New builds a Registry from rules. An empty policy means UnknownSuppress.
func New(unknown UnknownPolicy, rules []Rule) (*Registry, error) {
	return newRegistry(unknown, rules)
}

func newRegistry(unknown UnknownPolicy, rules []Rule) (*Registry, error) {
	if unknown == "" {
		unknown = UnknownSuppress
	}
	reg := &Registry{
		unknown: unknown,
		rules:   make(map[string]*Rule),
	}

	for i := range rules {
		r := rules[i]
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		for _, name := range r.Names {
			key := NormalizeName(name)
			if key == "" {
				return nil, fmt.Errorf("rule %d: %w: empty name", i+1, ErrInvalidRule)
			}
			if _, dup := reg.rules[key]; dup {
				return nil, fmt.Errorf("rule %d: %w: duplicate name %q", i+1, ErrInvalidRule, name)
			}
			reg.rules[key] = &r
		}
	}
	return reg, nil
}

func (r *Rule) validate() error {
	if len(r.Names) == 0 {
		return fmt.Errorf("%w: no names", ErrInvalidRule)
	}
	if r.Kind == "" {
		return fmt.Errorf("%w: missing kind", ErrInvalidRule)
	}
	kind, err := ParseKind(string(r.Kind))
	if err != nil {
		return err
	}
	r.Kind = kind

	switch {
	case r.Kind.summarizes() || r.Kind == KindItem:
		if strings.TrimSpace(r.Label) == "" {
			return fmt.Errorf("%w: %s rule needs a label", ErrInvalidRule, r.Kind)
		}
	case r.Kind == KindPhrase:
		if r.Format == "" {
			return fmt.Errorf("%w: phrase rule needs a format", ErrInvalidRule)
		}
	case r.Kind == KindLiteral:
		if r.Text == "" {
			return fmt.Errorf("%w: literal rule needs a text", ErrInvalidRule)
		}
	}
	return nil
}

// NormalizeName folds case and treats "_" as a space, as MediaWiki does
// for page names.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Lookup returns the rule for a template name.
func (reg *Registry) Lookup(name string) (Rule, bool) {
	r, ok := reg.rules[NormalizeName(name)]
	if !ok {
		return Rule{}, false
	}
	return *r, true
}

// Names lists every known template name, sorted.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.rules))
	for n := range reg.rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Unknown returns the policy for templates without a rule.
func (reg *Registry) Unknown() UnknownPolicy {
	return reg.unknown
}

// Expand implements wikitext.Handler.
func (reg *Registry) Expand(inv wikitext.Invocation) (string, error) {
	r, ok := reg.rules[NormalizeName(inv.Name)]
	if !ok {
		if reg.unknown == UnknownName && len(inv.Args) == 0 {
			return inv.Name, nil
		}
		return "", nil
	}
	return r.render(inv), nil
}

func (r *Rule) render(inv wikitext.Invocation) string {
	if r.SuppressIfLastArgContains != "" && strings.Contains(inv.Last(), r.SuppressIfLastArgContains) {
		return ""
	}

	switch {
	case r.Kind.summarizes():
		args := nonEmpty(inv.Args)
		if len(args) == 0 {
			return ""
		}
		return "(" + r.Label + ": " + strings.Join(args, ", ") + ")"
	case r.Kind == KindItem:
		pos := nonEmpty(inv.Positional())
		if len(pos) == 0 {
			return ""
		}
		return "(" + r.Label + ": " + pos[len(pos)-1] + ")"
	case r.Kind == KindNote:
		return inv.Last()
	case r.Kind == KindPhrase:
		out := strings.ReplaceAll(r.Format, "{args}", strings.Join(nonEmpty(inv.Args), ", "))
		out = strings.ReplaceAll(out, "{last}", inv.Last())
		return strings.TrimSpace(out)
	case r.Kind == KindLiteral:
		return r.Text
	}
	return ""
}

func nonEmpty(args []string) []string {
	var out []string
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
