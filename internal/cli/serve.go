package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"paradestate/internal/api/v1"
	"paradestate/internal/scheduler"
	"paradestate/internal/server"
)

var (
	servePort    int
	serveDev     bool
	serveDataDir string
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled sweeps",
		Run:   runServe,
	}
	cmd.Flags().IntVar(&servePort, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	cmd.Flags().BoolVar(&serveDev, "dev", false, "开发模式")
	cmd.Flags().StringVar(&serveDataDir, "dataDir", "", "数据目录 (覆盖配置文件)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	fmt.Println("==========================================")
	fmt.Println("  ParadeState - 名册状态助手")
	fmt.Println("==========================================")

	cfg, info := loadConfig()
	if info.Found {
		fmt.Printf("配置文件: %s\n", info.Path)
	}

	// 命令行参数覆盖配置
	if servePort > 0 && !info.PortSpecified {
		cfg.Server.Port = servePort
	}
	if serveDev {
		cfg.Server.DevMode = true
	}
	if serveDataDir != "" {
		cfg.Data.DataDir = serveDataDir
	}

	a, err := openApp(cfg)
	if err != nil {
		log.Fatalf("启动失败: %v", err)
	}
	defer a.Close()
	fmt.Printf("名册: %s\n", cfg.Roster.WorkbookPath)
	fmt.Printf("数据目录: %s\n", cfg.Data.DataDir)

	// 定时任务
	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		loc, _ := cfg.Location()
		sched, err = scheduler.New(a.svc, scheduler.Config{
			Location:      loc,
			SweepSpec:     cfg.Schedule.SweepCron,
			ReminderSpec:  cfg.Schedule.ReminderCron,
			ReminderChats: cfg.Schedule.ReminderChats,
			ReminderText:  cfg.Schedule.ReminderText,
		})
		if err != nil {
			log.Fatalf("定时任务配置错误: %v", err)
		}
		sched.Start()
		fmt.Printf("定时任务: %d 个\n", sched.Len())
	}

	srv := server.NewServer(cfg, v1.NewHandler(a.svc, a.audit, a.outbox))
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()
	fmt.Printf("状态: http://localhost:%d/api/status\n", cfg.Server.Port)
	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			log.Printf("等待定时任务结束超时: %v", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("关闭服务失败: %v", err)
	}
}
