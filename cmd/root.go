package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wangdayong228/ydyl-shim/internal/shim"
	"github.com/wangdayong228/ydyl-shim/internal/shimconfig"
	"github.com/wangdayong228/ydyl-shim/internal/utils/diagutil"
)

var logger = logrus.New()

// 调用方的所有参数（包括 --help 之类看起来像 flag 的参数）都原样转发给目标程序，
// 因此这里关闭 cobra 的 flag 解析，也不打印 usage / 错误，由 Execute 统一输出诊断。
var rootCmd = &cobra.Command{
	Use:                "shim [args...]",
	Short:              "根据同名 .shim 配置文件启动目标程序，并转发（可选记录）其 stdout/stderr",
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	RunE:               runShim,
}

func runShim(cmd *cobra.Command, args []string) error {
	settings, err := shimconfig.LoadSettings()
	if err != nil {
		return err
	}
	configureLogger(logger, settings.LogLevel, cmd.ErrOrStderr())

	return shim.DefaultSupervisor(logger).Main(settings, args)
}

func configureLogger(l *logrus.Logger, level string, out io.Writer) {
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.SetLevel(logrus.WarnLevel)
		l.WithField("SHIM_LOG_LEVEL", level).Warn("无法识别的日志级别，使用 warn")
		return
	}
	l.SetLevel(lvl)
}

// Execute 入口：运行 shim 并把结果转换为进程退出码，这是唯一调用 os.Exit 的地方。
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// 控制台管道被关闭时让写入返回 EPIPE（进而报告 IoFailed），而不是被 SIGPIPE 直接杀掉。
	// 用 Notify 而不是 Ignore：被忽略的信号会经 exec 继承给子进程，Notify 的不会。
	sigpipe := make(chan os.Signal, 1)
	signal.Notify(sigpipe, syscall.SIGPIPE)
	defer signal.Stop(sigpipe)

	return execute(args, os.Stderr)
}

// isCompletionRequest 判断首个参数是否会被 cobra 当作隐藏的补全命令拦截。
func isCompletionRequest(args []string) bool {
	return len(args) > 0 && (args[0] == cobra.ShellCompRequestCmd || args[0] == cobra.ShellCompNoDescRequestCmd)
}

func execute(args []string, stderr io.Writer) int {
	if args == nil {
		// cobra 在 args 为 nil 时会回退到 os.Args
		args = []string{}
	}

	var err error
	if isCompletionRequest(args) {
		err = runShim(rootCmd, args)
	} else {
		rootCmd.SetArgs(args)
		err = rootCmd.Execute()
	}
	if err == nil {
		return 0
	}

	var se *shim.Error
	if errors.As(err, &se) {
		diagutil.Print(stderr, se.Diagnostic())
	} else {
		fmt.Fprintln(stderr, err)
	}
	return shim.ExitCode(err)
}
