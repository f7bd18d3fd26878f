package catalog

import (
	"encoding/json"
	"fmt"

	"recipe-recommender/internal/pkg/common"
)

// Recipe 食譜資料表
// required_materials 以 JSON 文字儲存，讀取時再解析成 MaterialSpec
type Recipe struct {
	RecipeID          uint   `gorm:"column:recipe_id;primaryKey;autoIncrement"`
	Name              string `gorm:"column:name;not null"`
	RequiredMaterials string `gorm:"column:required_materials;not null"`
	Steps             string `gorm:"column:steps"`
	ImageURL          string `gorm:"column:image_url"`
}

// TableName 指定資料表名稱
func (Recipe) TableName() string {
	return "Recipes"
}

// MaterialMapping 收據品項對照表
// receipt_item 唯一，多個品項可對到同一個標準食材
type MaterialMapping struct {
	MappingID        uint   `gorm:"column:mapping_id;primaryKey;autoIncrement"`
	ReceiptItem      string `gorm:"column:receipt_item;not null;uniqueIndex"`
	StandardMaterial string `gorm:"column:standard_material;not null"`
}

// TableName 指定資料表名稱
func (MaterialMapping) TableName() string {
	return "MaterialMapping"
}

// MaterialSpec 食譜需求食材
// 種子資料有兩種寫法：純陣列（全部視為必備）或 {core, optional} 物件，
// 解析時統一成這個結構
type MaterialSpec struct {
	Core     []string `json:"core"`
	Optional []string `json:"optional"`
}

// ParseMaterialSpec 解析 required_materials JSON 文字
func ParseMaterialSpec(raw string) (MaterialSpec, error) {
	spec, err := parseMaterialSpec(raw)
	if err != nil {
		// 手寫種子偶爾漏掉鍵的引號，修復一次再重試
		if fixed := common.QuoteJSONKeys(raw); fixed != raw {
			return parseMaterialSpec(fixed)
		}
	}
	return spec, err
}

func parseMaterialSpec(raw string) (MaterialSpec, error) {
	// 純陣列寫法：全部視為必備
	var flat []string
	if err := common.ParseJSON(raw, &flat); err == nil {
		return MaterialSpec{Core: flat}, nil
	}

	// 物件寫法：缺少的欄位視為空集合
	var spec MaterialSpec
	if err := common.ParseJSON(raw, &spec); err != nil {
		return MaterialSpec{}, fmt.Errorf("unparseable required materials %q: %w", raw, err)
	}
	return spec, nil
}

// 種子檔案格式

type seedRecipe struct {
	Name      string          `json:"name"`
	Materials json.RawMessage `json:"materials"`
	Steps     string          `json:"steps"`
	ImageURL  string          `json:"image_url"`
}

type seedMapping struct {
	Item     string `json:"item"`
	Material string `json:"material"`
}
