package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"StockWatch/pkg/config"
	"StockWatch/pkg/database"
	"StockWatch/pkg/messaging"
	"StockWatch/pkg/monitor"
	"StockWatch/pkg/quotes"
	"StockWatch/pkg/scheduler"
)

func main() {
	log.Println("启动提醒监控服务...")

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

	// 连接NATS，发布提醒触发事件
	natsClient, err := messaging.NewNATSClient(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("连接NATS失败: %v\n", err)
	}
	defer natsClient.Close()
	if !natsClient.IsConnected() {
		log.Println("NATS连接未就绪，等待客户端自动重连")
	}

	// 创建行情客户端与提醒评估器
	quoteClient := quotes.NewClient(cfg.Quotes.PrimaryURL, cfg.Quotes.FallbackURL, cfg.Quotes.Timeout)
	evaluator := monitor.NewEvaluator(db.Alerts(), quoteClient, natsClient)

	// 按配置周期调度评估
	sched := scheduler.NewScheduler(evaluator)
	if err := sched.Start(cfg.Monitor.Schedule); err != nil {
		log.Fatalf("启动调度器失败: %v\n", err)
	}

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭监控服务...")
	sched.Stop()
	log.Println("监控服务已关闭")
}
