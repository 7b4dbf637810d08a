package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()

	want := map[UseCase]float32{
		ThemeDedup:      0.85,
		ThemeMerge:      0.80,
		EvidenceToTheme: 0.55,
		GeneralSearch:   0.50,
		FacetClustering: 0.40,
		PersonMatch:     0.80,
	}
	for u, v := range want {
		got, err := th.For(u)
		require.NoError(t, err)
		assert.Equal(t, v, got, string(u))
	}
	assert.NoError(t, th.Validate())
}

func TestThresholds_WithReturnsCopy(t *testing.T) {
	base := DefaultThresholds()

	modified, err := base.With(GeneralSearch, 0.7)
	require.NoError(t, err)

	assert.Equal(t, float32(0.7), modified.GeneralSearch)
	assert.Equal(t, float32(0.50), base.GeneralSearch, "original is unchanged")

	_, err = base.With(GeneralSearch, 1.5)
	assert.ErrorIs(t, err, ErrThresholdOutOfRange)

	_, err = base.With(UseCase("nope"), 0.5)
	assert.ErrorIs(t, err, ErrUnknownUseCase)
}

func TestThresholds_Validate(t *testing.T) {
	th := DefaultThresholds()
	th.FacetClustering = -0.1
	assert.ErrorIs(t, th.Validate(), ErrThresholdOutOfRange)
}

func TestThresholds_WithOverrides(t *testing.T) {
	th, err := DefaultThresholds().WithOverrides([]string{"theme-dedup=0.9", " person_match = 0.75"})
	require.NoError(t, err)
	assert.Equal(t, float32(0.9), th.ThemeDedup)
	assert.Equal(t, float32(0.75), th.PersonMatch)

	_, err = DefaultThresholds().WithOverrides([]string{"theme_dedup"})
	assert.Error(t, err)

	_, err = DefaultThresholds().WithOverrides([]string{"colour=0.5"})
	assert.ErrorIs(t, err, ErrUnknownUseCase)

	_, err = DefaultThresholds().WithOverrides([]string{"theme_dedup=high"})
	assert.Error(t, err)
}

func TestParseUseCase(t *testing.T) {
	u, err := ParseUseCase("Evidence-To-Theme")
	require.NoError(t, err)
	assert.Equal(t, EvidenceToTheme, u)

	_, err = ParseUseCase("")
	assert.ErrorIs(t, err, ErrUnknownUseCase)
}
