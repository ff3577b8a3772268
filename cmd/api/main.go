package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"StockWatch/pkg/aggregator"
	"StockWatch/pkg/api"
	"StockWatch/pkg/config"
	"StockWatch/pkg/database"
	"StockWatch/pkg/quotes"
	"StockWatch/pkg/resolver"
	"StockWatch/pkg/store"
)

func main() {
	log.Println("启动API服务...")

	// 本地开发时从.env读取环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到.env文件，使用现有环境变量")
	}

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	// 连接数据库
	db, err := database.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("连接数据库失败: %v\n", err)
	}
	defer db.Close()

	// 创建行情客户端
	quoteClient := quotes.NewClient(cfg.Quotes.PrimaryURL, cfg.Quotes.FallbackURL, cfg.Quotes.Timeout)

	// 创建存储：会话内存后端 + 用户持久化后端，按归属键路由
	sessionStore := store.NewSessionStore()
	dispatcher := store.NewDispatcher(sessionStore, db.Watchlists())

	// 创建归属识别器与迁移协调器
	ownerResolver := resolver.NewResolver(db.Users())
	migrator := resolver.NewMigrator(dispatcher)

	// 创建行情聚合器
	agg := aggregator.NewAggregator(quoteClient)

	// 创建API处理程序
	handlers := api.NewHandlers(dispatcher, agg, quoteClient, ownerResolver, migrator, db.Users())

	// 创建并启动服务器
	port := cfg.API.Port
	if port == "" {
		port = "8080"
	}
	server := api.NewServer(port)
	server.SetupRoutes(handlers)
	server.Start()
}
