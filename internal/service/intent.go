package service

import "strings"

// Intent 查询意图，在接口边界解析一次
type Intent int

const (
	IntentFeed Intent = iota
	IntentSorted
	IntentAll
	IntentSingle
)

var intentNames = map[Intent]string{
	IntentFeed:   "feed",
	IntentSorted: "sorted",
	IntentAll:    "all",
	IntentSingle: "single",
}

func (i Intent) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return "unknown"
}

// ParseIntent 解析列表查询参数 q：sorted 以外（含空）一律视为 feed。
// IntentAll 只由独立路由选择，不经过 q。
func ParseIntent(q string) Intent {
	if strings.EqualFold(strings.TrimSpace(q), "sorted") {
		return IntentSorted
	}
	return IntentFeed
}
