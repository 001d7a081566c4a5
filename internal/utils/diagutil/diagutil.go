package diagutil

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	subjectColor = color.New(color.FgMagenta)
	causeColor   = color.New(color.FgRed)
	hintColor    = color.New(color.FgYellow)
)

// Subject 高亮路径 / 程序名等诊断对象。
func Subject(s string) string {
	return subjectColor.Sprint(s)
}

// Cause 高亮底层错误原文。
func Cause(err error) string {
	if err == nil {
		return ""
	}
	return causeColor.Sprint(err.Error())
}

// Hint 高亮给用户的修复提示。
func Hint(s string) string {
	return hintColor.Sprint(s)
}

// Fatal 描述一条致命诊断：
//
//	<Message>: <Subject>
//	<Cause>
type Fatal struct {
	Message string
	Subject string
	Cause   error
}

func (f Fatal) String() string {
	s := f.Message
	if f.Subject != "" {
		s += ": " + Subject(f.Subject)
	}
	if f.Cause != nil {
		s += "\n" + Cause(f.Cause)
	}
	return s
}

// Print 将诊断写到 w（通常是 shim 自身的 stderr）。
func Print(w io.Writer, f Fatal) {
	fmt.Fprintln(w, f.String())
}
