package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"StockWatch/pkg/config"
	"StockWatch/pkg/model"
)

// Postgres 持久化存储连接
type Postgres struct {
	db *gorm.DB
}

// NewPostgres 创建新的数据库连接
func NewPostgres(cfg *config.Config) (*Postgres, error) {
	dbCfg := cfg.Database.Postgres

	// 构建连接字符串
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.DBName, dbCfg.SSLMode,
	)

	// 连接数据库
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("测试数据库连接失败: %w", err)
	}

	// 自动迁移表结构，(user_id, symbol)唯一约束由索引保证
	if err := db.AutoMigrate(&model.User{}, &model.WatchlistItem{}, &model.PriceAlert{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close 关闭数据库连接
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Watchlists 自选股存储
func (p *Postgres) Watchlists() *WatchlistDB {
	return &WatchlistDB{db: p.db}
}

// Alerts 价格提醒存储
func (p *Postgres) Alerts() *AlertDB {
	return &AlertDB{db: p.db}
}

// Users 用户存储
func (p *Postgres) Users() *UserDB {
	return &UserDB{db: p.db}
}
