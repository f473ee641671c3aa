package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvocationArgs(t *testing.T) {
	inv := Invocation{
		Name: "item",
		Args: []string{"mode=image", "Copper Pickaxe", "[[a=b]]", " size = 20px ", "size=30px", "медная кирка"},
	}

	assert.Equal(t, []string{"Copper Pickaxe", "[[a=b]]", "медная кирка"}, inv.Positional())
	assert.Equal(t, map[string]string{"mode": "image", "size": "30px"}, inv.Named())
}

func TestInvocationArgs_Empty(t *testing.T) {
	inv := Invocation{Name: "reflist"}
	assert.Nil(t, inv.Positional())
	assert.Empty(t, inv.Named())
	assert.Equal(t, "", inv.Last())
}

func TestInvocations(t *testing.T) {
	text := "a {{Infobox item|name=Кирка|damage={{na}}|{{{1}}}}} b {{}} {{note|x}} [[c]]"

	got := Invocations(text)
	assert.Equal(t, []Invocation{
		{Name: "Infobox item", Args: []string{"name=Кирка", "damage={{na}}", ""}},
		{Name: "note", Args: []string{"x"}},
	}, got)

	assert.Equal(t, map[string]string{"name": "Кирка", "damage": "{{na}}"}, got[0].Named())
	assert.Nil(t, Invocations("plain text"))
}
