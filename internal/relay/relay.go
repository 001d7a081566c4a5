// Package relay 把子进程的输出流同时转发到控制台与日志文件。
package relay

import (
	"io"

	"github.com/pkg/errors"
)

// ChunkSize 为每次从管道读取的固定缓冲大小，不按行切分，二进制安全。
const ChunkSize = 1024

// Task 描述一条输出流的转发任务，两个 Task 之间不共享任何可变状态。
type Task struct {
	// Name 为流名称（stdout / stderr），用于错误信息。
	Name string
	// Src 为子进程管道的读端。
	Src io.Reader
	// Console 为同类型的控制台流，每个 chunk 写入后立即 flush（如果支持）。
	Console io.Writer
	// File 为日志文件，nil 时只转发到控制台。
	File io.Writer
}

// Error.Op 的取值，区分失败发生在管道、控制台还是日志文件一侧。
const (
	OpReadPipe     = "读取管道"
	OpConsoleWrite = "写入控制台"
	OpConsoleFlush = "刷新控制台"
	OpFileWrite    = "写入日志文件"
)

type flusher interface {
	Flush() error
}

// Error 表示某条流转发失败。
type Error struct {
	Stream string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return e.Stream + " " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Run 循环读取 Src 直到 EOF；每读到 n>0 字节，先写控制台并 flush，再写日志文件。
// 任何读写错误都会立即中止本任务。
func (t Task) Run() error {
	buf := make([]byte, ChunkSize)
	for {
		n, rerr := t.Src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if err := writeFull(t.Console, chunk); err != nil {
				return &Error{Stream: t.Name, Op: OpConsoleWrite, Err: err}
			}
			if f, ok := t.Console.(flusher); ok {
				if err := f.Flush(); err != nil {
					return &Error{Stream: t.Name, Op: OpConsoleFlush, Err: err}
				}
			}
			if t.File != nil {
				if err := writeFull(t.File, chunk); err != nil {
					return &Error{Stream: t.Name, Op: OpFileWrite, Err: err}
				}
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return &Error{Stream: t.Name, Op: OpReadPipe, Err: rerr}
		}
	}
}

func writeFull(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return errors.WithStack(io.ErrShortWrite)
	}
	return nil
}

// RunAll 并发运行所有 Task。
// 全部成功时返回 nil；任一 Task 失败时立即返回该错误，不再等待其余 Task。
func RunAll(tasks ...Task) error {
	done := make(chan error, len(tasks))
	for _, t := range tasks {
		go func(t Task) {
			done <- t.Run()
		}(t)
	}

	for range tasks {
		if err := <-done; err != nil {
			return err
		}
	}
	return nil
}
