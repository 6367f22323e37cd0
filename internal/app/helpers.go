package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blogsphere/core/internal/config"
	pkgcron "github.com/blogsphere/core/internal/pkg/cron"
	"github.com/blogsphere/core/internal/pkg/nativelog"
	"go.uber.org/zap"
)

const logRetention = 14 * 24 * time.Hour

func applyRuntimeSettings(cfg *config.AppConfig) error {
	tz := strings.TrimSpace(cfg.Timezone)
	if tz == "" {
		return nil
	}
	loc, err := config.ParseLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	time.Local = loc
	_ = os.Setenv("TZ", tz)
	return nil
}

func registerCronJobs(sched *pkgcron.Scheduler, cfg *config.AppConfig, logger *zap.Logger) {
	logDir := cfg.LogDir()
	sched.Register(pkgcron.Job{
		Name:        "prune-logs",
		Description: "Remove daily log files older than two weeks",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			removed, err := nativelog.Prune(logDir, logRetention, time.Now())
			if err != nil {
				return err
			}
			if removed > 0 {
				logger.Info("pruned log files", zap.Int("removed", removed), zap.String("dir", logDir))
			}
			return nil
		},
	})
}
