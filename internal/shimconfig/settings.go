package shimconfig

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Settings 为 shim 自身的运行参数，全部来自 SHIM_ 前缀的环境变量。
// 调用方的命令行参数原样转发给子进程，因此 shim 不解析任何 flag。
type Settings struct {
	// ConfigPath 显式指定 sidecar 文件（SHIM_CONFIG），为空时由可执行文件路径推导。
	ConfigPath string `mapstructure:"config"`
	// LogLevel 为 shim 自身日志级别（SHIM_LOG_LEVEL），默认 warn，成功运行时不输出任何内容。
	LogLevel string `mapstructure:"log_level"`
}

// LoadSettings 从环境变量读取 Settings。
func LoadSettings() (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("SHIM")
	v.SetDefault("config", "")
	v.SetDefault("log_level", "warn")
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "读取 SHIM_ 环境变量失败")
	}
	return &s, nil
}

// ResolvePath 返回本次运行要读取的 sidecar 文件路径。
// 可执行文件路径只在这里计算一次，之后作为只读值传递。
func (s *Settings) ResolvePath() (string, error) {
	if s != nil && s.ConfigPath != "" {
		return s.ConfigPath, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "获取 shim 可执行文件路径失败")
	}
	return SidecarPath(exe), nil
}
