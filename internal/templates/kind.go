// Package templates maps wiki template names to text through a table of
// rules. A Registry is the wikitext.Handler used by the cleaning pipeline.
package templates

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is how a template is rendered.
type Kind string

// Summary kinds (recipe, infobox, achievement, history) render
// "(Label: a, b, ...)" from their non-empty arguments. KindNote renders the
// last argument and KindItem "(Label: X)" with X the last positional one.
// KindPhrase fills Format, KindLiteral renders Text and KindSuppress
// renders nothing.
const (
	KindRecipe      Kind = "recipe"
	KindInfobox     Kind = "infobox"
	KindAchievement Kind = "achievement"
	KindHistory     Kind = "history"
	KindNote        Kind = "note"
	KindItem        Kind = "item"
	KindPhrase      Kind = "phrase"
	KindLiteral     Kind = "literal"
	KindSuppress    Kind = "suppress"
)

var kinds = []Kind{
	KindRecipe, KindInfobox, KindAchievement, KindHistory,
	KindNote, KindItem, KindPhrase, KindLiteral, KindSuppress,
}

// ParseKind returns the Kind named s, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, s)
}

// summarizes reports whether k renders as "(Label: args...)".
func (k Kind) summarizes() bool {
	switch k {
	case KindRecipe, KindInfobox, KindAchievement, KindHistory:
		return true
	}
	return false
}

func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*k = parsed
	return nil
}

// UnknownPolicy decides what a template without a rule turns into.
type UnknownPolicy string

const (
	// UnknownSuppress drops unknown templates.
	UnknownSuppress UnknownPolicy = "suppress"
	// UnknownName renders an unknown template without arguments as its own
	// name and drops it otherwise.
	UnknownName UnknownPolicy = "name"
)

func (p *UnknownPolicy) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch UnknownPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case UnknownSuppress, "":
		*p = UnknownSuppress
	case UnknownName:
		*p = UnknownName
	default:
		return fmt.Errorf("line %d: %w: unknown policy %q", value.Line, ErrInvalidRule, s)
	}
	return nil
}
