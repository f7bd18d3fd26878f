package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// Normalizer 收據文字正規化
// 把對照表的鍵編譯成單一交替模式，鍵依長度遞減排序，
// 確保較長（較具體）的鍵在重疊位置優先被匹配
type Normalizer struct {
	mapping map[string]string
	pattern *regexp.Regexp
}

// New 從品項對照表建立正規化器
// 對照表載入後不再變動，所以只需建立一次
func New(mapping map[string]string) *Normalizer {
	n := &Normalizer{mapping: mapping}
	if len(mapping) == 0 {
		return n
	}

	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	// 長度遞減，等長時按字典序，保證模式建構是確定性的
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = regexp.QuoteMeta(key)
	}
	n.pattern = regexp.MustCompile(strings.Join(parts, "|"))

	return n
}

// Normalize 將收據文字逐行掃描成標準食材集合
// 空白行跳過；沒有任何鍵命中的行不算錯誤；輸出排序後回傳，
// 輸入行的順序不影響結果
func (n *Normalizer) Normalize(lines []string) []string {
	materials := make(map[string]struct{})
	if n.pattern != nil {
		for _, line := range lines {
			cleaned := strings.TrimSpace(line)
			if cleaned == "" {
				continue
			}
			for _, key := range n.pattern.FindAllString(cleaned, -1) {
				if material, ok := n.mapping[key]; ok {
					materials[material] = struct{}{}
				}
			}
		}
	}

	result := make([]string, 0, len(materials))
	for material := range materials {
		result = append(result, material)
	}
	sort.Strings(result)
	return result
}
