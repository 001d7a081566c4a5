package enums

import (
	"github.com/nft-rainbow/rainbow-goutils/utils/enumutils"
)

// OutcomeKind 表示 shim 一次运行的失败类别，成功时不产生 OutcomeKind（错误为 nil）。
type OutcomeKind int8

const (
	OutcomeKindConfigInvalid OutcomeKind = iota + 1
	OutcomeKindSpawnFailed
	OutcomeKindIoFailed
	OutcomeKindChildNonZero
	OutcomeKindWaitFailed
)

var OutcomeKindEb enumutils.EnumBase[OutcomeKind]

func init() {
	OutcomeKindEb = enumutils.NewEnumBase("OutcomeKind", map[OutcomeKind]string{
		OutcomeKindConfigInvalid: "config_invalid",
		OutcomeKindSpawnFailed:   "spawn_failed",
		OutcomeKindIoFailed:      "io_failed",
		OutcomeKindChildNonZero:  "child_non_zero",
		OutcomeKindWaitFailed:    "wait_failed",
	})
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return OutcomeKindEb.MarshalText(k)
}

func (k *OutcomeKind) UnmarshalText(data []byte) error {
	val, err := OutcomeKindEb.UnmarshalText(data)
	if err != nil {
		return err
	}
	*k = val
	return nil
}

func (k OutcomeKind) String() string {
	return OutcomeKindEb.String(k)
}

func ParseOutcomeKind(s string) (OutcomeKind, error) {
	return OutcomeKindEb.Parse(s)
}

// ExitCode 返回该类别对应的 shim 自身退出码。
// ChildNonZero 的退出码取决于子进程状态，这里只给出兜底值。
func (k OutcomeKind) ExitCode() int {
	switch k {
	case OutcomeKindConfigInvalid:
		return 78 // EX_CONFIG
	case OutcomeKindSpawnFailed:
		return 126
	case OutcomeKindIoFailed:
		return 74 // EX_IOERR
	case OutcomeKindWaitFailed:
		return 70 // EX_SOFTWARE
	default:
		return 1
	}
}
