package routes

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dexcache/dexcache/internal/store"
	"github.com/dexcache/dexcache/internal/version"
)

// RegisterAdminRoutes 挂载 /-/ 运维接口：健康检查、verbose 开关与
// 各 store 的 refresh/backup/recover 命令。除 recover 外均幂等。
func RegisterAdminRoutes(app *fiber.App, opts Options) {
	if app == nil {
		return
	}

	app.Get("/-/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": version.Full(),
		})
	})

	app.Post("/-/admin/verbose", func(c fiber.Ctx) error {
		enabled, err := strconv.ParseBool(c.Query("enabled"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enabled_must_be_bool"})
		}
		opts.Cache.SetVerbose(enabled)
		return c.JSON(fiber.Map{"verbose": enabled})
	})

	app.Post("/-/admin/refresh/:target", func(c fiber.Ctx) error {
		var err error
		switch target := c.Params("target"); target {
		case "primary":
			err = opts.Cache.RefreshPrimary()
		case "extra":
			err = opts.Cache.RefreshExtra()
		case "lists":
			err = opts.Cache.RefreshLists()
		default:
			return unknownTarget(c, target)
		}
		if err != nil {
			return adminFailure(c, opts.Logger, "refresh", err)
		}
		return c.JSON(fiber.Map{"refreshed": c.Params("target")})
	})

	app.Post("/-/admin/backup/:target", func(c fiber.Ctx) error {
		var (
			path string
			err  error
		)
		switch target := c.Params("target"); target {
		case "primary":
			path, err = opts.Cache.BackupPrimary()
		case "extra":
			path, err = opts.Cache.BackupExtra()
		default:
			return unknownTarget(c, target)
		}
		if err != nil {
			return adminFailure(c, opts.Logger, "backup", err)
		}
		return c.JSON(fiber.Map{"snapshot": path})
	})

	app.Post("/-/admin/recover/:target", func(c fiber.Ctx) error {
		var err error
		switch target := c.Params("target"); target {
		case "primary":
			err = opts.Cache.RecoverPrimary()
		case "extra":
			err = opts.Cache.RecoverExtra()
		default:
			return unknownTarget(c, target)
		}
		if errors.Is(err, store.ErrNoSnapshot) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no_snapshot"})
		}
		if err != nil {
			return adminFailure(c, opts.Logger, "recover", err)
		}
		return c.JSON(fiber.Map{"recovered": c.Params("target")})
	})
}

func unknownTarget(c fiber.Ctx, target string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "unknown_target",
		"target": target,
	})
}

func adminFailure(c fiber.Ctx, logger *logrus.Logger, action string, err error) error {
	logger.WithFields(logrus.Fields{
		"action": "admin_" + action,
	}).Error(err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": action + "_failed"})
}
