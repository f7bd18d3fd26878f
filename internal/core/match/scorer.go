package match

import (
	"recipe-recommender/internal/core/catalog"
)

// Score 計算單一食譜對可用食材的匹配結果
//
// 規則：
//   - core、optional 都為空 ⇒ 0 分，永遠不推薦
//   - core 為空但 optional 非空 ⇒ optional 整組視為必備（匹配策略的既定行為）
//   - 缺任何必備食材 ⇒ 0 分、matched 清空，但 missing 仍回報全部缺少的項目，
//     讓呼叫端可以顯示「還需要什麼」
//   - 必備齊全 ⇒ 分數 = 已有 / (必備 ∪ 加分) 的比例
func Score(spec catalog.MaterialSpec, available map[string]struct{}) (float64, map[string]struct{}, map[string]struct{}) {
	core := toSet(spec.Core)
	optional := toSet(spec.Optional)

	if len(core) == 0 && len(optional) == 0 {
		return 0, map[string]struct{}{}, map[string]struct{}{}
	}

	if len(core) == 0 && len(optional) > 0 {
		core = optional
		optional = map[string]struct{}{}
	}

	allRequired := union(core, optional)
	matched := intersect(allRequired, available)
	missing := difference(allRequired, available)

	missingCore := difference(core, available)
	if len(missingCore) > 0 {
		return 0, map[string]struct{}{}, missing
	}

	ratio := 0.0
	if len(allRequired) > 0 {
		ratio = float64(len(matched)) / float64(len(allRequired))
	}
	return ratio, matched, missing
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func union(a, b map[string]struct{}) map[string]struct{} {
	result := make(map[string]struct{}, len(a)+len(b))
	for item := range a {
		result[item] = struct{}{}
	}
	for item := range b {
		result[item] = struct{}{}
	}
	return result
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	result := make(map[string]struct{})
	for item := range a {
		if _, ok := b[item]; ok {
			result[item] = struct{}{}
		}
	}
	return result
}

func difference(a, b map[string]struct{}) map[string]struct{} {
	result := make(map[string]struct{})
	for item := range a {
		if _, ok := b[item]; !ok {
			result[item] = struct{}{}
		}
	}
	return result
}
