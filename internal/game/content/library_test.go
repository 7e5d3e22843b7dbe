package content_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/game/content"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

// writeContent lays out files (path relative to root -> body) under a fresh
// temp directory and returns its path.
func writeContent(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

const heroYAML = `
id: hero
name: Hero
stats:
  max_hp: 1000
  attack: 0
abilities:
  - name: Smash
    effects:
      - kind: damage
        value: 1000
`

const ratYAML = `
id: rat
name: Rat
stats:
  max_hp: 10
abilities:
  - name: Bite
    effects:
      - kind: damage
        value: 10
`

const fangYAML = `
id: fang
name: Fang
kind: junk
max_stack: 99
`

const potionYAML = `
id: potion
name: Potion
kind: consumable
max_stack: 5
targeting:
  can_self_target: true
effects:
  - kind: heal
    value: 25
`

func TestLoad_RepoContent(t *testing.T) {
	lib, err := content.Load(filepath.Join("..", "..", "..", "content"))
	require.NoError(t, err)

	for _, id := range []string{"cellar", "crypt"} {
		_, ok := lib.Stage(id)
		assert.True(t, ok, "stage %s", id)
	}
	for _, id := range []string{"knight", "cleric", "mage", "rat", "rat_king", "cultist"} {
		_, ok := lib.Template(id)
		assert.True(t, ok, "template %s", id)
	}
	_, ok := lib.Statuses.Get("guard")
	assert.True(t, ok)
	_, ok = lib.Items.Item("potion")
	assert.True(t, ok)

	cellar, _ := lib.Stage("cellar")
	m, ok := cellar.Modifier("fat_rats")
	require.True(t, ok)
	assert.Equal(t, 25, m.Value)
}

func TestLoad_MissingDirectoriesAreEmpty(t *testing.T) {
	lib, err := content.Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, lib.Templates())
	assert.Empty(t, lib.Stages())
	assert.Empty(t, lib.Items.AllItems())
}

func TestLoad_CrossValidationReportsEveryDanglingReference(t *testing.T) {
	root := writeContent(t, map[string]string{
		"entities/hero.yaml": `
id: hero
name: Hero
stats:
  max_hp: 10
abilities:
  - name: Drain
    resolver: vampire
    effects:
      - kind: debuff
        status: doom
`,
		"items/fang.yaml": fangYAML,
		"stages/bad.yaml": `
id: bad
name: Bad
party: [hero]
adversaries: [ghost]
script: scripts/missing.lua
loot:
  hero:
    entries:
      - kind: gem
        chance: 50
        min_count: 1
        max_count: 1
starting_items:
  elixir: 1
`,
	})
	_, err := content.Load(root)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`unknown resolver "vampire"`,
		`unknown status effect "doom"`,
		`unknown entity template "ghost"`,
		`loot drops unknown item "gem"`,
		`unknown starting item "elixir"`,
		`script "scripts/missing.lua" not found`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	root := writeContent(t, map[string]string{
		"entities/hero.yaml": heroYAML + "favourite_colour: blue\n",
	})
	_, err := content.Load(root)
	assert.Error(t, err)
}

func TestLoad_RejectsDuplicateTemplate(t *testing.T) {
	root := writeContent(t, map[string]string{
		"entities/a.yaml": heroYAML,
		"entities/b.yaml": heroYAML,
	})
	_, err := content.Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}

func TestLoad_InvalidStage(t *testing.T) {
	root := writeContent(t, map[string]string{
		"entities/hero.yaml": heroYAML,
		"stages/empty.yaml": `
id: empty
name: Empty
party: [hero]
heals:
  - every: 0
    amount: 5
    side: nobody
`,
	})
	_, err := content.Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adversaries or waves are required")
	assert.Contains(t, err.Error(), "heals[0]")
}

func TestLibrary_Spawn(t *testing.T) {
	root := writeContent(t, map[string]string{
		"entities/hero.yaml": heroYAML,
		"entities/rat.yaml":  ratYAML,
	})
	lib, err := content.Load(root)
	require.NoError(t, err)
	lib.EntityOptions = []entity.Option{entity.WithReductionCap(50)}

	out, err := lib.Spawn([]string{"rat", "rat"}, entity.SideAdversary)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.NotEqual(t, out[0].ID, out[1].ID)
	assert.Equal(t, 10, out[0].Stats.HP)
	assert.Equal(t, entity.SideAdversary, out[0].Side)

	out[0].Buffs.Apply(effect.NewDamageReduction("Wall", 90, 2))
	assert.Equal(t, 50.0, out[0].DamageReduction(), "library-wide reduction cap applies")

	out[0].Abilities[0].StartCooldown()
	tmpl, _ := lib.Template("rat")
	assert.Equal(t, 0, tmpl.Abilities[0].CurrentCooldown, "template abilities are cloned")

	_, err = lib.Spawn([]string{"rat", "ghost"}, entity.SideAdversary)
	assert.Error(t, err)
}
