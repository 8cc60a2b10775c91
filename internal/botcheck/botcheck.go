// Package botcheck: Heuristic bot classification of inbound user-agent strings
// Matches a fixed list of common crawler tokens and treats an empty user-agent
// as a bot too, then lets an optional override function have the final say
//
// botcheck: 入站 user-agent 字符串的启发式爬虫分类
// 匹配一组固定的常见爬虫标记，并将空 user-agent 也视为爬虫
// 之后允许可选的覆盖函数做出最终裁决
package botcheck

import "regexp"

// botPattern enumerates common crawler tokens, case-insensitively
// 枚举常见的爬虫标记，大小写不敏感
var botPattern = regexp.MustCompile(`(?i)(bot|crawl|spider|curl|wget|slurp|yandex|` +
	`facebookexternalhit|googlebot|bingbot|baiduspider|duckduckbot|ia_archiver|` +
	`semrushbot|ahrefsbot|mj12bot|rogerbot|dotbot|petalbot|applebot|whatsapp)`)

// Override lets a caller override the regex-based verdict for a given
// user-agent; invoked as (userAgent, regexVerdict) -> finalVerdict
//
// Override 允许调用方针对给定 user-agent 覆盖基于正则的判定
// 调用形式为 (userAgent, regexVerdict) -> finalVerdict
type Override func(userAgent string, regexVerdict bool) bool

// Classifier decides whether a user-agent string belongs to a bot
// 判定 user-agent 字符串是否属于爬虫
type Classifier struct {
	override Override
}

// New builds a Classifier, optionally with an override hook
// override may be nil, in which case only the regex verdict applies
//
// New 构建一个 Classifier，可选携带覆盖钩子
// override 可以为 nil，此时只使用正则判定
func New(override Override) *Classifier {
	return &Classifier{override: override}
}

// IsBot reports whether userAgent looks like a bot
// An empty user-agent is always treated as a bot (most browsers always send one)
//
// IsBot 判定 userAgent 是否像爬虫
// 空 user-agent 一律视为爬虫（正常浏览器总会携带该字段）
func (c *Classifier) IsBot(userAgent string) bool {
	verdict := userAgent == "" || botPattern.MatchString(userAgent)
	if c.override != nil {
		return c.override(userAgent, verdict)
	}
	return verdict
}
