package match

import (
	"sort"

	"recipe-recommender/internal/core/catalog"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// Recommendation 單筆推薦結果，僅在請求期間存在
type Recommendation struct {
	Name             string   `json:"name"`
	ImageURL         string   `json:"image_url,omitempty"`
	MatchRatio       int      `json:"match_ratio"`
	MatchedMaterials []string `json:"matched_materials"`
	MissingMaterials []string `json:"missing_materials"`
	MissingCount     int      `json:"missing_count"`
	Steps            string   `json:"steps,omitempty"`
}

// Recommender 推薦引擎
type Recommender struct {
	store *catalog.Store
}

// NewRecommender 創建推薦引擎
func NewRecommender(store *catalog.Store) *Recommender {
	return &Recommender{store: store}
}

// Recommend 對整個目錄評分並回傳前 topN 筆
//
// 排序規則：match_ratio 遞減，同分時 missing_count 遞增，
// 再同分時維持目錄順序（穩定排序）
// 單筆食譜的需求欄位解析失敗只跳過該筆並記 warning，不中斷整批
func (r *Recommender) Recommend(available []string, topN int) []Recommendation {
	availableSet := toSet(available)

	recipes := r.store.Recipes()
	recommendations := make([]Recommendation, 0, len(recipes))
	for _, recipe := range recipes {
		spec, err := catalog.ParseMaterialSpec(recipe.RequiredMaterials)
		if err != nil {
			common.LogWarn("食譜需求欄位解析失敗，跳過",
				zap.String("食譜", recipe.Name),
				zap.Error(err),
			)
			continue
		}

		ratio, matched, missing := Score(spec, availableSet)
		if ratio <= 0 {
			continue
		}

		recommendations = append(recommendations, Recommendation{
			Name:             recipe.Name,
			ImageURL:         recipe.ImageURL,
			MatchRatio:       int(ratio * 100),
			MatchedMaterials: sortedSlice(matched),
			MissingMaterials: sortedSlice(missing),
			MissingCount:     len(missing),
			Steps:            recipe.Steps,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		if recommendations[i].MatchRatio != recommendations[j].MatchRatio {
			return recommendations[i].MatchRatio > recommendations[j].MatchRatio
		}
		return recommendations[i].MissingCount < recommendations[j].MissingCount
	})

	if len(recommendations) > topN {
		recommendations = recommendations[:topN]
	}
	return recommendations
}

func sortedSlice(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for item := range set {
		result = append(result, item)
	}
	sort.Strings(result)
	return result
}
