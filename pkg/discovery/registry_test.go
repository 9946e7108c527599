package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/errors"
)

func TestRegistry_DefaultChains(t *testing.T) {
	c, err := Default().Chains(ChainConfig{})
	require.NoError(t, err)

	def := DefaultChains()
	assert.Equal(t, def, c)
}

func TestRegistry_ChainSelection(t *testing.T) {
	c, err := Default().Chains(ChainConfig{
		Cuts:         []string{"xor", "sequence"},
		FallThroughs: []string{"flower"},
	})
	require.NoError(t, err)
	require.Len(t, c.Cuts, 2)
	assert.Equal(t, "xor", c.Cuts[0].Name())
	assert.Equal(t, "imf", c.Splitter.Name())
	assert.Len(t, c.BaseCases, 4)
	assert.Empty(t, c.PostProcessors)
}

func TestRegistry_Errors(t *testing.T) {
	_, err := Default().Chains(ChainConfig{Cuts: []string{"sequence", "or-split"}})
	assert.True(t, errors.IsCode(err, errors.CodeUnknownStrategy), "got %v", err)

	_, err = Default().Chains(ChainConfig{Splitter: "strict"})
	assert.True(t, errors.IsCode(err, errors.CodeUnknownStrategy))

	_, err = Default().Chains(ChainConfig{FallThroughs: []string{}})
	assert.True(t, errors.IsCode(err, errors.CodeEmptyChain))

	_, err = Default().Chains(ChainConfig{Cuts: []string{"a"}, FallThroughs: []string{"b"}})
	var multi *errors.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
}

func TestRegistry_Policy(t *testing.T) {
	p, err := Default().Policy("", nil)
	require.NoError(t, err)
	assert.Equal(t, "lowest", p.Name())

	p, err = Default().Policy("fewest-discards", nil)
	require.NoError(t, err)
	assert.Equal(t, "fewest-discards", p.Name())

	_, err = Default().Policy("scored", nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidConfig))

	_, err = Default().Policy("best", nil)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownStrategy))
}

func TestRegistry_Custom(t *testing.T) {
	r := NewRegistry()
	r.RegisterSplitter("pass", func() Splitter { return passSplitter{} })
	r.RegisterFallThrough("flower", func() FallThrough { return flower{} })

	c, err := r.Chains(ChainConfig{
		BaseCases:    []string{},
		Cuts:         []string{},
		Splitter:     "pass",
		FallThroughs: []string{"flower"},
	})
	require.NoError(t, err)
	assert.Empty(t, c.BaseCases)
	assert.Equal(t, "pass", c.Splitter.Name())

	list := r.List()
	assert.Equal(t, []string{"pass"}, list[FamilySplitter])
	assert.Empty(t, list[FamilyCut])
	assert.Contains(t, Default().List()[FamilyCut], "maybe-interleaved")
}
