package cart

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var randomIDPattern = regexp.MustCompile(`^prod-[0-9a-z]{9}$`)

func TestRandomIDGenerator(t *testing.T) {
	gen := RandomIDGenerator{}

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		id := gen.Generate(sneaker())
		assert.Regexp(t, randomIDPattern, id)
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

func TestSlugIDGenerator(t *testing.T) {
	gen := SlugIDGenerator{}

	t.Run("stable for the same card", func(t *testing.T) {
		assert.Equal(t, gen.Generate(sneaker()), gen.Generate(sneaker()))
	})

	t.Run("readable prefix", func(t *testing.T) {
		item := sneaker()
		item.Name = "Zapatilla Córdoba"
		item.Category = "Niños"
		assert.Regexp(t, `^prod-ninos-zapatilla-cordoba-[0-9a-f]{8}$`, gen.Generate(item))
	})

	t.Run("price is part of the identity", func(t *testing.T) {
		cheaper := sneaker()
		cheaper.UnitPrice = price("9.99")
		assert.NotEqual(t, gen.Generate(sneaker()), gen.Generate(cheaper))
	})

	t.Run("symbols only still yields an id", func(t *testing.T) {
		item := sneaker()
		item.Name = "***"
		item.Category = ""
		assert.Regexp(t, `^prod-[0-9a-f]{8}$`, gen.Generate(item))
	})
}

func TestNewIDGenerator(t *testing.T) {
	for _, name := range []string{"", IDStrategyRandom} {
		gen, err := NewIDGenerator(name)
		require.NoError(t, err)
		assert.IsType(t, RandomIDGenerator{}, gen)
	}

	gen, err := NewIDGenerator(IDStrategySlug)
	require.NoError(t, err)
	assert.IsType(t, SlugIDGenerator{}, gen)

	_, err = NewIDGenerator("sequential")
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "tenis-runner-pro", Slugify("  Tenis  Runner/Pro "))
	assert.Equal(t, "accion", Slugify("Acción!"))
	assert.Equal(t, "", Slugify("¡¿?!"))
}
