package pokecache

import "github.com/sirupsen/logrus"

// 运维命令：与 Web 层解耦的可调用动作，除 recover 外均幂等。

// SetVerbose 同时切换两个 store 的命中日志开关。
func (c *Cache) SetVerbose(on bool) {
	c.primary.SetVerbose(on)
	c.extra.SetVerbose(on)
	c.logger.WithFields(logrus.Fields{
		"action":  "set_verbose",
		"enabled": on,
	}).Info("verbose cache logging toggled")
}

// VerboseEnabled 返回命中日志开关状态。
func (c *Cache) VerboseEnabled() bool {
	return c.primary.Verbose()
}

// RefreshPrimary 清空主缓存（内存 + 落盘文件）。
func (c *Cache) RefreshPrimary() error {
	return c.primary.RefreshAll()
}

// BackupPrimary 为主缓存创建新快照，返回快照路径。
func (c *Cache) BackupPrimary() (string, error) {
	return c.primary.Backup()
}

// RecoverPrimary 从最新快照恢复主缓存。
func (c *Cache) RecoverPrimary() error {
	return c.primary.Recover()
}

// RefreshExtra 清空次级缓存（内存 + 落盘文件）。
func (c *Cache) RefreshExtra() error {
	return c.extra.RefreshAll()
}

// BackupExtra 为次级缓存创建新快照，返回快照路径。
func (c *Cache) BackupExtra() (string, error) {
	return c.extra.Backup()
}

// RecoverExtra 从最新快照恢复次级缓存。
func (c *Cache) RecoverExtra() error {
	return c.extra.Recover()
}
