package shim

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
	"github.com/wangdayong228/ydyl-shim/internal/constants/enums"
	"github.com/wangdayong228/ydyl-shim/internal/shimconfig"
	"github.com/wangdayong228/ydyl-shim/internal/utils/diagutil"
)

// Error 是 shim 所有致命失败的统一表示，Kind 区分失败类别。
type Error struct {
	Kind enums.OutcomeKind
	// Subject 为出错的对象：sidecar 路径、目标程序路径或日志文件路径。
	Subject string
	// Status 仅在 ChildNonZero 时有值。
	Status *exec.ExitError
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case enums.OutcomeKindChildNonZero:
		return fmt.Sprintf("%s 执行失败: %v", e.Subject, e.Err)
	default:
		if e.Err == nil {
			return fmt.Sprintf("%s: %s", e.Kind, e.Subject)
		}
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Subject, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Diagnostic 返回写给用户的彩色诊断。
func (e *Error) Diagnostic() diagutil.Fatal {
	switch e.Kind {
	case enums.OutcomeKindConfigInvalid:
		if errors.Is(e.Err, shimconfig.ErrMissingPath) {
			return diagutil.Fatal{Message: "未找到 " + diagutil.Hint(shimconfig.PathHint) + "，sidecar 文件", Subject: e.Subject}
		}
		return diagutil.Fatal{Message: "无法加载 sidecar 配置", Subject: e.Subject, Cause: e.Err}
	case enums.OutcomeKindSpawnFailed:
		return diagutil.Fatal{Message: "无法启动程序", Subject: e.Subject, Cause: e.Err}
	case enums.OutcomeKindIoFailed:
		return diagutil.Fatal{Message: "输出转发失败", Subject: e.Subject, Cause: e.Err}
	case enums.OutcomeKindWaitFailed:
		return diagutil.Fatal{Message: "无法等待子进程退出", Subject: e.Subject, Cause: e.Err}
	default:
		return diagutil.Fatal{Message: "子进程执行失败，状态", Subject: e.statusText()}
	}
}

func (e *Error) statusText() string {
	if e.Status != nil {
		return e.Status.ProcessState.String()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown"
}

// ExitCode 返回 shim 自身的退出码。
// ChildNonZero 时复用子进程退出码，被信号终止时为 128+信号值，其余类别使用固定值。
func (e *Error) ExitCode() int {
	switch e.Kind {
	case enums.OutcomeKindChildNonZero:
		return childExitCode(e.Status)
	case enums.OutcomeKindSpawnFailed:
		if errors.Is(e.Err, exec.ErrNotFound) || errors.Is(e.Err, syscall.ENOENT) {
			return 127
		}
		return e.Kind.ExitCode()
	default:
		return e.Kind.ExitCode()
	}
}

func childExitCode(status *exec.ExitError) int {
	if status == nil {
		return 1
	}
	if code := status.ExitCode(); code > 0 {
		return code
	}
	if ws, ok := status.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}

// ExitCode 将 Run 的结果转换为进程退出码，nil 为 0。
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) {
		return se.ExitCode()
	}
	return 1
}

func newError(kind enums.OutcomeKind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}
