package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// 預設佔位圖
const defaultImageURL = "default_image_url"

// Store 食譜目錄
// 第一次使用時從 SQLite 載入記憶體，之後唯讀共享，不再變動
type Store struct {
	cfg *config.StorageConfig

	mu      sync.Mutex
	loaded  bool
	recipes []Recipe
	mapping map[string]string
}

// NewStore 創建目錄儲存
func NewStore(cfg *config.StorageConfig) *Store {
	return &Store{
		cfg:     cfg,
		mapping: make(map[string]string),
	}
}

// NewStoreFromData 以現成資料建立已載入的目錄，供測試與工具使用
func NewStoreFromData(recipes []Recipe, mapping map[string]string) *Store {
	if mapping == nil {
		mapping = make(map[string]string)
	}
	return &Store{
		loaded:  true,
		recipes: recipes,
		mapping: mapping,
	}
}

// Load 載入目錄（冪等，可在每個請求呼叫）
// DB 不存在或為空時先從種子檔初始化再重試一次
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	if _, err := os.Stat(s.cfg.DBPath); os.IsNotExist(err) {
		common.LogInfo("DB 檔案不存在，開始初始化", zap.String("db_path", s.cfg.DBPath))
		if err := s.initialize(); err != nil {
			common.LogError("資料庫初始化失敗", zap.Error(err))
			return err
		}
	}

	// 損壞或空的儲存嘗試重新初始化一次，仍失敗則目錄保持為空
	if err := s.loadFromDB(); err != nil || len(s.recipes) == 0 || len(s.mapping) == 0 {
		if err != nil {
			common.LogWarn("目錄載入失敗，重新初始化資料庫", zap.Error(err))
			// 損壞的 DB 檔案無法就地重建，移除後從種子重建
			if removeErr := os.Remove(s.cfg.DBPath); removeErr != nil && !os.IsNotExist(removeErr) {
				common.LogError("無法移除損壞的 DB 檔案", zap.Error(removeErr))
				return err
			}
		} else {
			common.LogWarn("目錄資料為空，重新初始化資料庫")
		}
		if err := s.initialize(); err != nil {
			common.LogError("資料庫初始化失敗", zap.Error(err))
			return err
		}
		if err := s.loadFromDB(); err != nil {
			common.LogError("目錄載入失敗", zap.Error(err))
			return err
		}
	}

	s.loaded = true
	common.LogInfo("目錄載入完成",
		zap.Int("食譜數", len(s.recipes)),
		zap.Int("對照數", len(s.mapping)),
	)
	return nil
}

// Recipes 唯讀食譜清單，載入前為空
func (s *Store) Recipes() []Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recipes
}

// Mapping 唯讀品項對照表，載入前為空
func (s *Store) Mapping() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapping
}

// open 開啟 SQLite 連線
func (s *Store) open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(s.cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	return db, nil
}

// loadFromDB 將 DB 的所有資料載入記憶體
func (s *Store) loadFromDB() error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer closeDB(db)

	var recipes []Recipe
	if err := db.Find(&recipes).Error; err != nil {
		return fmt.Errorf("failed to query recipes: %w", err)
	}

	var mappings []MaterialMapping
	if err := db.Find(&mappings).Error; err != nil {
		return fmt.Errorf("failed to query material mappings: %w", err)
	}

	mapping := make(map[string]string, len(mappings))
	for _, m := range mappings {
		mapping[m.ReceiptItem] = m.StandardMaterial
	}

	s.recipes = recipes
	s.mapping = mapping
	return nil
}

// initialize 重建資料表並從種子檔匯入
// 種子檔不存在時先產生佔位種子，服務仍可啟動
func (s *Store) initialize() error {
	common.LogInfo("⏳ 開始資料庫初始化")

	if err := s.ensureSeedFiles(); err != nil {
		return err
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer closeDB(db)

	// 重建資料表
	if err := db.Migrator().DropTable(&Recipe{}, &MaterialMapping{}); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	if err := db.AutoMigrate(&Recipe{}, &MaterialMapping{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	if err := s.seedRecipes(db); err != nil {
		return err
	}
	if err := s.seedMappings(db); err != nil {
		return err
	}

	common.LogInfo("✅ 資料庫初始化完成")
	return nil
}

// ensureSeedFiles 種子檔不存在時產生最小佔位內容
func (s *Store) ensureSeedFiles() error {
	if _, err := os.Stat(s.cfg.RecipesJSON); os.IsNotExist(err) {
		common.LogWarn("食譜種子檔不存在，產生佔位內容", zap.String("path", s.cfg.RecipesJSON))
		placeholder := []seedRecipe{
			{
				Name:      "샘플 김치찌개",
				Materials: json.RawMessage(`{"core":["김치"],"optional":["두부"]}`),
			},
		}
		if err := writeSeedFile(s.cfg.RecipesJSON, placeholder); err != nil {
			return err
		}
	}

	if _, err := os.Stat(s.cfg.MappingsJSON); os.IsNotExist(err) {
		common.LogWarn("對照種子檔不存在，產生佔位內容", zap.String("path", s.cfg.MappingsJSON))
		placeholder := []seedMapping{
			{Item: "샘플김치", Material: "김치"},
		}
		if err := writeSeedFile(s.cfg.MappingsJSON, placeholder); err != nil {
			return err
		}
	}

	return nil
}

// seedRecipes 匯入食譜種子
func (s *Store) seedRecipes(db *gorm.DB) error {
	data, err := os.ReadFile(s.cfg.RecipesJSON)
	if err != nil {
		return fmt.Errorf("failed to read recipes seed: %w", err)
	}

	var seeds []seedRecipe
	if err := common.ParseJSONBytes(data, &seeds); err != nil {
		return fmt.Errorf("failed to parse recipes seed: %w", err)
	}

	for _, seed := range seeds {
		imageURL := seed.ImageURL
		if imageURL == "" {
			imageURL = defaultImageURL
		}
		recipe := Recipe{
			Name:              seed.Name,
			RequiredMaterials: string(seed.Materials),
			Steps:             seed.Steps,
			ImageURL:          imageURL,
		}
		if err := db.Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to insert recipe %q: %w", seed.Name, err)
		}
	}

	common.LogInfo("食譜種子匯入完成", zap.Int("筆數", len(seeds)))
	return nil
}

// seedMappings 匯入品項對照種子
// receipt_item 重複時跳過不覆蓋（insert-or-ignore）
func (s *Store) seedMappings(db *gorm.DB) error {
	data, err := os.ReadFile(s.cfg.MappingsJSON)
	if err != nil {
		return fmt.Errorf("failed to read mappings seed: %w", err)
	}

	var seeds []seedMapping
	if err := common.ParseJSONBytes(data, &seeds); err != nil {
		return fmt.Errorf("failed to parse mappings seed: %w", err)
	}

	for _, seed := range seeds {
		mapping := MaterialMapping{
			ReceiptItem:      seed.Item,
			StandardMaterial: seed.Material,
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&mapping).Error; err != nil {
			return fmt.Errorf("failed to insert mapping %q: %w", seed.Item, err)
		}
	}

	common.LogInfo("對照種子匯入完成", zap.Int("筆數", len(seeds)))
	return nil
}

func writeSeedFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal seed content: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write seed file %s: %w", path, err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
