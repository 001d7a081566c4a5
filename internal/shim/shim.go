package shim

import (
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wangdayong228/ydyl-shim/internal/constants/enums"
	"github.com/wangdayong228/ydyl-shim/internal/infra/oscmdexec"
	"github.com/wangdayong228/ydyl-shim/internal/relay"
	"github.com/wangdayong228/ydyl-shim/internal/shimconfig"
)

// Stdio 为 shim 自身的标准输入输出，子进程的输入从这里继承，输出转发到这里。
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSStdio 返回当前进程的标准输入输出。
func OSStdio() Stdio {
	return Stdio{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Supervisor 负责启动子进程、转发输出并等待其退出。
type Supervisor struct {
	Start oscmdexec.Starter
	Stdio Stdio
	Log   logrus.FieldLogger
}

func NewSupervisor(start oscmdexec.Starter, stdio Stdio, log logrus.FieldLogger) *Supervisor {
	return &Supervisor{Start: start, Stdio: stdio, Log: log}
}

func DefaultSupervisor(log logrus.FieldLogger) *Supervisor {
	return &Supervisor{Start: oscmdexec.DefaultStarter, Stdio: OSStdio(), Log: log}
}

func (s *Supervisor) logger() logrus.FieldLogger {
	if s.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return s.Log
}

// Main 执行一次完整的运行：读取配置 → 启动 → 转发 → 等待。
// 返回 nil 表示子进程成功退出；否则返回 *Error。
func (s *Supervisor) Main(settings *shimconfig.Settings, callerArgs []string) error {
	desc, err := Configure(settings)
	if err != nil {
		return err
	}
	return s.Run(desc, callerArgs)
}

// Configure 定位并加载 sidecar 文件，失败一律为 ConfigInvalid。
func Configure(settings *shimconfig.Settings) (*shimconfig.LaunchDescriptor, error) {
	path, err := settings.ResolvePath()
	if err != nil {
		return nil, newError(enums.OutcomeKindConfigInvalid, "shim", err)
	}
	desc, err := shimconfig.Load(path)
	if err != nil {
		return nil, newError(enums.OutcomeKindConfigInvalid, path, errors.Cause(err))
	}
	return desc, nil
}

// Run 按 desc 启动子进程，并在日志模式下把 stdout/stderr 同时写入控制台与日志文件。
func (s *Supervisor) Run(desc *shimconfig.LaunchDescriptor, callerArgs []string) error {
	log := s.logger().WithFields(logrus.Fields{"path": desc.Path, "sidecar": desc.Source})

	spec := oscmdexec.Spec{
		Name:  desc.Path,
		Args:  desc.Argv(callerArgs),
		Stdin: s.Stdio.Stdin,
	}

	if !desc.Logging() {
		spec.Stdout = s.Stdio.Stdout
		spec.Stderr = s.Stdio.Stderr

		log.WithField("mode", "passthrough").Debug("spawning")
		proc, err := s.spawn(spec)
		if err != nil {
			return err
		}
		log.WithField("pid", proc.Pid()).Debug("passthrough running")
		return s.reap(log, desc, proc)
	}

	stdoutLog, err := createLog(desc.StdoutLogPath())
	if err != nil {
		return err
	}
	defer stdoutLog.Close()
	stderrLog, err := createLog(desc.StderrLogPath())
	if err != nil {
		return err
	}
	defer stderrLog.Close()

	spec.Capture = true
	log.WithFields(logrus.Fields{"mode": "relay", "log": *desc.Log}).Debug("spawning")
	proc, err := s.spawn(spec)
	if err != nil {
		return err
	}
	log = log.WithField("pid", proc.Pid())
	log.Debug("relaying")

	// 必须先把两条管道读完，再 Wait：Wait 会关闭管道，提前调用会丢失尚未读取的输出。
	err = relay.RunAll(
		relay.Task{Name: "stdout", Src: proc.Stdout, Console: s.Stdio.Stdout, File: stdoutLog},
		relay.Task{Name: "stderr", Src: proc.Stderr, Console: s.Stdio.Stderr, File: stderrLog},
	)
	if err != nil {
		return newError(enums.OutcomeKindIoFailed, relaySubject(desc, err), err)
	}

	for _, f := range []*os.File{stdoutLog, stderrLog} {
		if err := f.Close(); err != nil {
			return newError(enums.OutcomeKindIoFailed, f.Name(), err)
		}
	}

	return s.reap(log, desc, proc)
}

func (s *Supervisor) spawn(spec oscmdexec.Spec) (*oscmdexec.Process, error) {
	start := s.Start
	if start == nil {
		start = oscmdexec.DefaultStarter
	}
	proc, err := start(spec)
	if err != nil {
		return nil, newError(enums.OutcomeKindSpawnFailed, spec.Name, err)
	}
	return proc, nil
}

func (s *Supervisor) reap(log logrus.FieldLogger, desc *shimconfig.LaunchDescriptor, proc *oscmdexec.Process) error {
	log.Debug("reaping")
	err := proc.Wait()
	if err == nil {
		log.Debug("succeeded")
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.WithField("status", exitErr.ProcessState.String()).Debug("child failed")
		return &Error{Kind: enums.OutcomeKindChildNonZero, Subject: desc.Path, Status: exitErr, Err: err}
	}
	return newError(enums.OutcomeKindWaitFailed, desc.Path, err)
}

func createLog(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, newError(enums.OutcomeKindIoFailed, path, err)
	}
	return f, nil
}

// relaySubject 指出转发失败的一端：日志文件写入失败时为对应的日志路径，
// 管道读取或控制台写入失败时为流名称本身。
func relaySubject(desc *shimconfig.LaunchDescriptor, err error) string {
	var rerr *relay.Error
	if !errors.As(err, &rerr) {
		return *desc.Log
	}
	if rerr.Op != relay.OpFileWrite {
		return rerr.Stream
	}
	switch rerr.Stream {
	case "stdout":
		return desc.StdoutLogPath()
	case "stderr":
		return desc.StderrLogPath()
	default:
		return rerr.Stream
	}
}
