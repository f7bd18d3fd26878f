package match

import (
	"testing"

	"recipe-recommender/internal/core/catalog"

	"github.com/stretchr/testify/assert"
)

func available(items ...string) map[string]struct{} {
	return toSet(items)
}

func TestScoreEmptySpec(t *testing.T) {
	ratio, matched, missing := Score(catalog.MaterialSpec{}, available("김치", "두부"))

	assert.Equal(t, 0.0, ratio)
	assert.Empty(t, matched)
	assert.Empty(t, missing)
}

func TestScoreOptionalOnlyTreatedAsMandatory(t *testing.T) {
	spec := catalog.MaterialSpec{Optional: []string{"두부", "대파"}}

	// 缺一個 optional 就整個不合格
	ratio, matched, missing := Score(spec, available("두부"))
	assert.Equal(t, 0.0, ratio)
	assert.Empty(t, matched)
	assert.Equal(t, available("대파"), missing)

	// 全部都有才合格
	ratio, matched, missing = Score(spec, available("두부", "대파"))
	assert.Equal(t, 1.0, ratio)
	assert.Equal(t, available("두부", "대파"), matched)
	assert.Empty(t, missing)
}

func TestScoreMissingCoreDisqualifies(t *testing.T) {
	spec := catalog.MaterialSpec{
		Core:     []string{"김치", "돼지고기"},
		Optional: []string{"두부"},
	}

	ratio, matched, missing := Score(spec, available("두부"))

	assert.Equal(t, 0.0, ratio)
	assert.Empty(t, matched)
	// 不合格時仍回報所有缺少的項目（含 optional）
	assert.Equal(t, available("김치", "돼지고기"), missing)
}

func TestScorePartialMatch(t *testing.T) {
	spec := catalog.MaterialSpec{
		Core:     []string{"김치", "돼지고기"},
		Optional: []string{"두부"},
	}

	ratio, matched, missing := Score(spec, available("김치", "돼지고기"))

	assert.InDelta(t, 2.0/3.0, ratio, 1e-9)
	assert.Equal(t, available("김치", "돼지고기"), matched)
	assert.Equal(t, available("두부"), missing)
}

func TestScoreFullMatch(t *testing.T) {
	spec := catalog.MaterialSpec{
		Core:     []string{"김치"},
		Optional: []string{"두부"},
	}

	ratio, matched, missing := Score(spec, available("김치", "두부", "대파"))

	assert.Equal(t, 1.0, ratio)
	assert.Equal(t, available("김치", "두부"), matched)
	assert.Empty(t, missing)
}

func TestScoreFlatSpecAllMandatory(t *testing.T) {
	spec := catalog.MaterialSpec{Core: []string{"계란", "밥"}}

	ratio, _, _ := Score(spec, available("계란"))
	assert.Equal(t, 0.0, ratio)

	ratio, matched, missing := Score(spec, available("계란", "밥"))
	assert.Equal(t, 1.0, ratio)
	assert.Len(t, matched, 2)
	assert.Empty(t, missing)
}
