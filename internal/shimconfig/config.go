package shimconfig

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// SidecarExt 是 sidecar 配置文件的固定扩展名：foo.exe 对应 foo.shim。
const SidecarExt = ".shim"

// PathHint 是缺少 path 时提示给用户的配置写法。
const PathHint = `path = "path/to/program"`

var ErrMissingPath = errors.New("缺少 path 配置")

// LaunchDescriptor 描述一次启动所需的全部信息，Load 之后只读。
type LaunchDescriptor struct {
	// Path 为目标程序路径，非空。
	Path string
	// Args 为追加在调用方参数之后的单个字面参数（不做 shell 切分），nil 表示未配置。
	Args *string
	// Log 为日志文件前缀，非 nil 时开启日志模式。
	Log *string
	// Source 为读取该配置的 sidecar 文件路径。
	Source string
}

// Logging 返回是否开启日志模式。
func (d *LaunchDescriptor) Logging() bool {
	return d.Log != nil
}

func (d *LaunchDescriptor) StdoutLogPath() string {
	if d.Log == nil {
		return ""
	}
	return *d.Log + ".stdout.log"
}

func (d *LaunchDescriptor) StderrLogPath() string {
	if d.Log == nil {
		return ""
	}
	return *d.Log + ".stderr.log"
}

// Argv 返回子进程参数：调用方参数在前，配置中的 args 在后。
func (d *LaunchDescriptor) Argv(callerArgs []string) []string {
	out := make([]string, 0, len(callerArgs)+1)
	out = append(out, callerArgs...)
	if d.Args != nil {
		out = append(out, *d.Args)
	}
	return out
}

// SidecarPath 将可执行文件路径的扩展名替换为 .shim（没有扩展名时直接追加）。
func SidecarPath(exePath string) string {
	return strings.TrimSuffix(exePath, filepath.Ext(exePath)) + SidecarExt
}

// Load 打开并解析 sidecar 文件，只读取一次，不重试。
func Load(path string) (*LaunchDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "打开 sidecar 文件失败 %s", path)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "解析 sidecar 文件失败 %s", path)
	}
	d.Source = path
	return d, nil
}

// Parse 按行读取 key = value 配置。
// 识别 path / args / log 三个 key，其余 key 与不含 '=' 的行直接忽略；同一 key 以最后一次赋值为准。
func Parse(r io.Reader) (*LaunchDescriptor, error) {
	d := &LaunchDescriptor{}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			applyLine(d, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "读取配置行失败")
		}
	}

	if d.Path == "" {
		return nil, ErrMissingPath
	}
	return d, nil
}

func applyLine(d *LaunchDescriptor, line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	value = unquote(strings.TrimSpace(value))

	switch key {
	case "path":
		d.Path = value
	case "args":
		d.Args = &value
	case "log":
		d.Log = &value
	}
}

// unquote 去掉一层成对的双引号。
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
