package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"StockWatch/pkg/monitor"
)

// Scheduler 任务调度器，按配置的周期驱动提醒评估
type Scheduler struct {
	cron      *cron.Cron
	evaluator *monitor.Evaluator
}

// NewScheduler 创建任务调度器
func NewScheduler(evaluator *monitor.Evaluator) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		evaluator: evaluator,
	}
}

// Start 启动调度器
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.evaluator.RunOnce(context.Background()); err != nil {
			log.Printf("提醒评估失败: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("调度器已启动: %s", schedule)
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
