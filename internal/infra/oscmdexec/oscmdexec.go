package oscmdexec

import (
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// Spec 描述一次基于 os/exec 的进程启动规范。
type Spec struct {
	// Name 为可执行文件名或路径。
	Name string
	// Args 为参数列表（不包含 Name）。
	Args []string

	// Stdin 为子进程标准输入，nil 时继承 os.Stdin。
	Stdin io.Reader
	// Stdout / Stderr 仅在 Capture=false 时生效，nil 时继承当前进程对应的流。
	Stdout io.Writer
	Stderr io.Writer
	// Capture 为 true 时 stdout/stderr 以管道方式交给调用方读取。
	Capture bool
}

// Process 是已启动的子进程句柄。
// Capture 模式下 Stdout/Stderr 的读取必须在 Wait 之前全部完成，Wait 会关闭管道。
type Process struct {
	pid  int
	wait func() error

	Stdout io.ReadCloser
	Stderr io.ReadCloser
}

// NewProcess 用已有的管道与 wait 函数构造 Process，供非 os/exec 的 Starter 使用。
func NewProcess(pid int, stdout, stderr io.ReadCloser, wait func() error) *Process {
	return &Process{pid: pid, wait: wait, Stdout: stdout, Stderr: stderr}
}

// Starter 启动一个 Spec 对应的进程。
// 设计为可注入，便于测试中 mock。
type Starter func(spec Spec) (*Process, error)

// DefaultStarter 使用 os/exec 启动子进程。
func DefaultStarter(spec Spec) (*Process, error) {
	cmd := exec.Command(spec.Name, spec.Args...)

	cmd.Stdin = spec.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}

	p := &Process{wait: cmd.Wait}
	if spec.Capture {
		var err error
		if p.Stdout, err = cmd.StdoutPipe(); err != nil {
			return nil, errors.Wrap(err, "创建 stdout 管道失败")
		}
		if p.Stderr, err = cmd.StderrPipe(); err != nil {
			return nil, errors.Wrap(err, "创建 stderr 管道失败")
		}
	} else {
		cmd.Stdout = orFile(spec.Stdout, os.Stdout)
		cmd.Stderr = orFile(spec.Stderr, os.Stderr)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p.pid = cmd.Process.Pid
	return p, nil
}

func orFile(w io.Writer, f *os.File) io.Writer {
	if w == nil {
		return f
	}
	return w
}

func (p *Process) Pid() int {
	if p == nil {
		return 0
	}
	return p.pid
}

// Wait 等待子进程退出。非零退出返回 *exec.ExitError。
func (p *Process) Wait() error {
	return p.wait()
}
