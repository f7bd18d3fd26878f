package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaterialSpecFlatList(t *testing.T) {
	spec, err := ParseMaterialSpec(`["김치","돼지고기"]`)

	require.NoError(t, err)
	assert.Equal(t, []string{"김치", "돼지고기"}, spec.Core)
	assert.Empty(t, spec.Optional)
}

func TestParseMaterialSpecCoreOptional(t *testing.T) {
	spec, err := ParseMaterialSpec(`{"core":["김치"],"optional":["두부"]}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"김치"}, spec.Core)
	assert.Equal(t, []string{"두부"}, spec.Optional)
}

func TestParseMaterialSpecMissingFieldsDefaultEmpty(t *testing.T) {
	spec, err := ParseMaterialSpec(`{"core":["김치"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"김치"}, spec.Core)
	assert.Empty(t, spec.Optional)

	spec, err = ParseMaterialSpec(`{}`)
	require.NoError(t, err)
	assert.Empty(t, spec.Core)
	assert.Empty(t, spec.Optional)
}

func TestParseMaterialSpecUnquotedKeysRepaired(t *testing.T) {
	spec, err := ParseMaterialSpec(`{core:["김치"],optional:["두부"]}`)

	require.NoError(t, err)
	assert.Equal(t, []string{"김치"}, spec.Core)
	assert.Equal(t, []string{"두부"}, spec.Optional)
}

func TestParseMaterialSpecInvalid(t *testing.T) {
	_, err := ParseMaterialSpec(`{"core": 123`)
	assert.Error(t, err)

	_, err = ParseMaterialSpec(`not json at all`)
	assert.Error(t, err)
}
