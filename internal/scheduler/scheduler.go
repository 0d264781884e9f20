// Package scheduler runs periodic maintenance jobs, currently the scheduled
// snapshots of both cache stores.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Manager 持有 cron 调度器，生命周期由 main 管理。
type Manager struct {
	cron   *cron.Cron
	logger *logrus.Logger
}

// New 构造调度器，使用标准 5 段 cron 表达式。
func New(logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		cron:   cron.New(),
		logger: logger,
	}
}

// Schedule 按 spec 注册周期任务；表达式非法时返回错误。
func (m *Manager) Schedule(spec, name string, job func() error) error {
	_, err := m.cron.AddFunc(spec, func() {
		if err := job(); err != nil {
			m.logger.WithFields(logrus.Fields{
				"action": "scheduled_job",
				"job":    name,
			}).Error(err.Error())
			return
		}
		m.logger.WithFields(logrus.Fields{
			"action": "scheduled_job",
			"job":    name,
		}).Info("scheduled job completed")
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start 启动调度循环。
func (m *Manager) Start() {
	m.cron.Start()
}

// Close 停止调度并等待执行中的任务结束。
func (m *Manager) Close() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}
