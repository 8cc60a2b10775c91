package redissess

import "strings"

// RequestContext carries the per-request metadata the original source reads
// from a process environment map (REQUEST_METHOD, SERVER_NAME, REQUEST_URI,
// SCRIPT_NAME, HTTP_USER_AGENT). It is used only for diagnostics and bot
// classification; a zero value degrades only logging, never correctness
//
// RequestContext 携带原始实现从进程环境映射中读取的逐请求元数据
// （REQUEST_METHOD、SERVER_NAME、REQUEST_URI、SCRIPT_NAME、HTTP_USER_AGENT）
// 仅用于诊断和爬虫分类；零值只会降级日志质量，不影响正确性
type RequestContext struct {
	Method     string
	Host       string
	URI        string
	ScriptName string
	UserAgent  string
}

// Descriptor renders "METHOD HOST URI" when the HTTP fields are present,
// falling back to the script name, matching what gets staged into the
// session record's req field on lock acquisition
//
// Descriptor 在 HTTP 字段存在时渲染 "METHOD HOST URI"，否则回退为脚本名，
// 与获取锁时写入会话记录 req 字段的内容一致
func (r RequestContext) Descriptor() string {
	if r.Method != "" || r.Host != "" || r.URI != "" {
		parts := []string{r.Method, r.Host, r.URI}
		return strings.TrimSpace(strings.Join(parts, " "))
	}
	return r.ScriptName
}
