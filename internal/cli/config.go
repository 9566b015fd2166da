package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paradestate/internal/config"
)

var configForce bool

func init() {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml",
		Run:   runConfigInit,
	}
	initCmd.Flags().BoolVar(&configForce, "force", false, "覆盖已存在的配置文件")
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Run:   runConfigShow,
	}

	cfgCmd.AddCommand(initCmd, showCmd)
	RootCmd.AddCommand(cfgCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil && !configForce {
		exitErr("config init", fmt.Errorf("%s already exists (use --force)", path))
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		exitErr("save config", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已写入默认配置 %s\n", path)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, info := loadConfig()
	if !info.Found {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s 不存在，使用默认配置\n", info.Path)
	}
	data, err := config.Encode(cfg)
	if err != nil {
		exitErr("config show", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
}
