// Package cli 实现 paradestate 命令行
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"paradestate/internal/config"
)

var (
	configPath   string
	workbookPath string
)

// RootCmd 顶层命令
var RootCmd = &cobra.Command{
	Use:   "paradestate",
	Short: "Parade state roster assistant",
	Long:  "Parses free-text status messages into roster updates, and sweeps expired statuses back to their defaults.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (默认: $PARADESTATE_CONFIG 或可执行文件同目录 config.toml)")
	RootCmd.PersistentFlags().StringVarP(&workbookPath, "workbook", "w", "", "名册工作簿路径 (覆盖配置文件)")
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadConfig 加载配置；失败时使用默认配置继续
func loadConfig() (*config.AppConfig, config.LoadConfigInfo) {
	cfg, info, err := config.LoadFrom(getConfigPath())
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{Path: getConfigPath()}
	}
	if workbookPath != "" {
		cfg.Roster.WorkbookPath = workbookPath
	}
	return cfg, info
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
