package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"
)

// 环境变量
const (
	EnvConfigPath   = "PARADESTATE_CONFIG"
	EnvWorkbookPath = "PARADESTATE_WORKBOOK_PATH"
	EnvTimezone     = "PARADESTATE_TIMEZONE"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Roster   RosterConfig   `toml:"roster"`
	Sweep    SweepConfig    `toml:"sweep"`
	Rotation RotationConfig `toml:"rotation"`
	Schedule ScheduleConfig `toml:"schedule"`
	Notify   NotifyConfig   `toml:"notify"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置（审计库等）
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// RosterConfig 名册工作簿配置
type RosterConfig struct {
	WorkbookPath      string `toml:"workbook_path"`
	Platoon           string `toml:"platoon"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
}

// SweepConfig 过期清理配置
type SweepConfig struct {
	Timezone   string `toml:"timezone"`
	CutoffHour int    `toml:"cutoff_hour"`
	SameDay    string `toml:"same_day"` // forward | never | elapsed
}

// RotationConfig 留营轮换配置
type RotationConfig struct {
	Members []string `toml:"members"`
	StayIn  string   `toml:"stay_in"`
	StayOut string   `toml:"stay_out"`
}

// ScheduleConfig 定时任务配置（标准 5 段 cron 表达式）
type ScheduleConfig struct {
	Enabled       bool     `toml:"enabled"`
	SweepCron     string   `toml:"sweep_cron"`
	ReminderCron  string   `toml:"reminder_cron"`
	ReminderChats []string `toml:"reminder_chats"`
	ReminderText  string   `toml:"reminder_text"`
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	MemoryLimit int      `toml:"memory_limit"`
	Log         bool     `toml:"log"`
	ReportChats []string `toml:"report_chats"` // 清理报告发送的会话
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Roster: RosterConfig{
			WorkbookPath:      "roster.xlsx",
			Platoon:           "AE",
			RetryDelaySeconds: 5,
		},
		Sweep: SweepConfig{
			Timezone:   "Asia/Singapore",
			CutoffHour: 20,
			SameDay:    "forward",
		},
		Rotation: RotationConfig{
			StayIn:  "STAY IN",
			StayOut: "STAY OUT",
		},
		Schedule: ScheduleConfig{
			Enabled:      true,
			SweepCron:    "0 21 * * *",
			ReminderCron: "30 7 * * 1-5",
			ReminderText: "⏰ Reminder: please submit your status updates for today.",
		},
		Notify: NotifyConfig{
			MemoryLimit: 200,
			Log:         true,
		},
	}
}

// Location 清理使用的时区
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Sweep.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Sweep.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Sweep.Timezone, err)
	}
	return loc, nil
}

// RetryDelay 日表写入重试间隔
func (c *AppConfig) RetryDelay() time.Duration {
	return time.Duration(c.Roster.RetryDelaySeconds) * time.Second
}

// Validate 启动前校验
func (c *AppConfig) Validate() error {
	if c.Roster.WorkbookPath == "" {
		return fmt.Errorf("roster.workbook_path is required")
	}
	if c.Sweep.CutoffHour < 0 || c.Sweep.CutoffHour > 24 {
		return fmt.Errorf("sweep.cutoff_hour out of range: %d", c.Sweep.CutoffHour)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 默认配置文件路径：$PARADESTATE_CONFIG，否则为可执行文件同目录下的 config.toml
func DefaultPath() string {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadFrom 从指定路径加载配置；文件不存在时使用默认配置。环境变量最后覆盖
func LoadFrom(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	// 环境变量覆盖
	if v := os.Getenv(EnvWorkbookPath); v != "" {
		config.Roster.WorkbookPath = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		config.Sweep.Timezone = v
	}

	// 相对路径以配置文件所在目录为基准
	base := filepath.Dir(path)
	if !filepath.IsAbs(config.Roster.WorkbookPath) && config.Roster.WorkbookPath != "" {
		config.Roster.WorkbookPath = filepath.Join(base, config.Roster.WorkbookPath)
	}
	if !filepath.IsAbs(config.Data.DataDir) && config.Data.DataDir != "" {
		config.Data.DataDir = filepath.Join(base, config.Data.DataDir)
	}
	return config, info, nil
}

// LoadConfigWithInfo 从默认位置加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFrom(DefaultPath())
}

// LoadConfig 从默认位置加载配置
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// Encode 序列化为 TOML
func Encode(config *AppConfig) ([]byte, error) {
	return toml.Marshal(config)
}

// SaveConfig 保存配置到指定路径
func SaveConfig(config *AppConfig, path string) error {
	data, err := Encode(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	if err := os.MkdirAll(config.Data.DataDir, 0755); err != nil {
		return "", err
	}
	return config.Data.DataDir, nil
}
