// Package utils: Shared utilities to generate correlation identifiers
// Provides hex-encoded UUID generation to support diagnostic log correlation
// Lightweight utilities to handle project infrastructure needs
//
// utils: 在生成关联标识符时的内部工具函数
// 在诊断日志关联期间提供十六进制编码 UUID 生成
// 在处理内部项目基础设施需要时的轻量级工具包
package utils

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewUUID generates a random UUID v4 encoded as a hex string
// Used to suffix a session handler's lock identity, which lock-break log
// lines carry, so a reader can grep for one handler's activity
// Returns a 32-character hex string
//
// NewUUID 生成编码为十六进制字符串的随机 UUID v4
// 用于给会话处理器的锁标识加后缀，锁被打破的日志行会携带该标识，便于检索
// 返回 32 字符的十六进制字符串
func NewUUID() string {
	newUUID := uuid.New()
	return hex.EncodeToString(newUUID[:])
}
