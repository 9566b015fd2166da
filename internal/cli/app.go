package cli

import (
	"fmt"
	"log"

	"paradestate/internal/config"
	"paradestate/internal/model"
	"paradestate/internal/notify"
	"paradestate/internal/service/excel"
	"paradestate/internal/service/mutator"
	"paradestate/internal/service/parade"
	"paradestate/internal/service/sweeper"
	"paradestate/internal/store"
)

// app 运行期依赖
type app struct {
	cfg      *config.AppConfig
	workbook *excel.Workbook
	audit    *store.Store
	outbox   *notify.MemorySender
	svc      *parade.Service
}

// openApp 打开名册与审计库并组装工作流
func openApp(cfg *config.AppConfig) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	wb, err := excel.Open(cfg.Roster.WorkbookPath)
	if err != nil {
		return nil, err
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		_ = wb.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	audit, err := store.OpenDir(dataDir)
	if err != nil {
		_ = wb.Close()
		return nil, err
	}

	outbox := notify.NewMemorySender(cfg.Notify.MemoryLimit)
	var sender notify.Sender = outbox
	if cfg.Notify.Log {
		sender = notify.Multi{notify.LogSender{}, outbox}
	}

	svc := parade.New(parade.Options{
		Mutator: mutator.New(wb, mutator.Config{
			Platoon:    cfg.Roster.Platoon,
			RetryDelay: cfg.RetryDelay(),
		}),
		Sweeper: sweeper.New(wb, sweeper.Config{
			Platoon:    cfg.Roster.Platoon,
			Location:   loc,
			CutoffHour: cfg.Sweep.CutoffHour,
			SameDay:    sweeper.ParseSameDayPolicy(cfg.Sweep.SameDay),
			Rotation: model.StayRotation{
				Members: cfg.Rotation.Members,
				StayIn:  cfg.Rotation.StayIn,
				StayOut: cfg.Rotation.StayOut,
			},
		}),
		Sender:      sender,
		Audit:       audit,
		ReportChats: cfg.Notify.ReportChats,
	})

	log.Printf("[cli] 名册 %s (%d 张表)，审计库 %s", wb.Path(), len(wb.Sheets()), dataDir)
	return &app{cfg: cfg, workbook: wb, audit: audit, outbox: outbox, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.audit.Close(); err != nil {
		log.Printf("[cli] 关闭审计库失败: %v", err)
	}
	if err := a.workbook.Close(); err != nil {
		log.Printf("[cli] 关闭名册失败: %v", err)
	}
}
