package app

import (
	"errors"
	"fmt"

	"github.com/carrierpay/internal/config"
	"github.com/carrierpay/internal/constants"
	"github.com/carrierpay/internal/logger"
	"github.com/carrierpay/internal/provider"
	"github.com/carrierpay/internal/router"
	"github.com/carrierpay/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	switch mode {
	case constants.ServerModeAll, constants.ServerModeAPI, constants.ServerModeWorker:
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	container := provider.NewContainer(cfg)
	var services []Service

	if mode == constants.ServerModeAll || mode == constants.ServerModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// all 模式下队列未启用时回调结论同步落库，不启动 worker
	if mode == constants.ServerModeWorker || (mode == constants.ServerModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container.PaymentService)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			container.Close()
			return nil, err
		}
		services = append(services, workerService)
	} else if mode == constants.ServerModeAll {
		logger.Infow("worker_skipped", "reason", "queue disabled")
	}

	if len(services) == 0 {
		container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}
	runner := NewRunner(services...)
	runner.OnExit(container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
