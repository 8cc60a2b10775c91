// Package logging: Flexible logging interface of session handler operations
// Provides pluggable logging with support on custom implementations
// Enables context-aware logging with structured fields and graded output
// Designed to serve production environments requiring flexible logging strategies
//
// logging: 会话处理器操作的灵活日志接口
// 提供可插拔的日志记录，支持自定义实现
// 支持带结构化字段和分级输出的上下文感知日志
// 专为需要灵活日志策略的生产环境设计
package logging

import (
	"go.uber.org/zap"
)

// Level mirrors the eight syslog severities (emergency=0 ... debug=7) that
// the consumed logger contract is specified against.
//
// Level 对应八个 syslog 严重级别（emergency=0 ... debug=7）
type Level int

const (
	LevelEmergency Level = iota
	LevelAlert
	LevelCritical
	LevelError
	LevelWarning
	LevelNotice
	LevelInfo
	LevelDebug
)

// Logger defines the interface for session handler logging
// Provides structured logging methods with field support
// Enables custom implementations across different logging backends
// Supports graded logging from emergency down through debug
//
// Logger 定义会话处理器日志记录的接口
// 提供带字段支持的结构化日志方法
// 支持不同日志后端的自定义实现
// 支持从 emergency 到 debug 的分级日志
type Logger interface {
	// DebugLog logs debug-level messages with optional fields
	// 记录带可选字段的调试级别消息
	DebugLog(msg string, fields ...zap.Field)

	// ErrorLog logs error-level messages with optional fields
	// 记录带可选字段的错误级别消息
	ErrorLog(msg string, fields ...zap.Field)

	// WithMeta creates a new logger with additional fields
	// 创建带附加字段的新日志记录器
	WithMeta(fields ...zap.Field) Logger

	// SetLevel changes the minimum severity this logger emits
	// 更改此日志记录器发出的最低严重级别
	SetLevel(level Level)

	// Log emits a message at the given graded severity
	// 以给定的分级严重性发出消息
	Log(level Level, msg string, fields ...zap.Field)

	// LogException logs an error value at error severity
	// 以 error 严重级别记录一个 error 值
	LogException(err error, fields ...zap.Field)
}

// zapLogger implements Logger using zaplog in standard operations
// Wraps zaplog functions to provide consistent logging interface
// Supports structured logging with contextual fields and a level gate
//
// zapLogger 使用 zaplog 实现 Logger 用于标准操作
// 包装 zaplog 功能以提供一致的日志接口
// 支持带上下文字段的结构化日志和级别过滤
type zapLogger struct {
	logger *zap.Logger
	level  Level
}

// NewZapLogger creates a logger with a custom zap.Logger instance
// Enables complete control over logging configuration
// Defaults the level gate to debug (everything passes through)
//
// NewZapLogger 使用自定义 zap.Logger 实例创建日志记录器
// 实现对日志配置的完全控制
// 默认级别过滤为 debug（全部放行）
func NewZapLogger(logger *zap.Logger) Logger {
	return &zapLogger{
		logger: logger,
		level:  LevelDebug,
	}
}

// DebugLog logs debug-level messages with structured fields
// 记录带结构化字段的调试级别消息
func (l *zapLogger) DebugLog(msg string, fields ...zap.Field) {
	l.Log(LevelDebug, msg, fields...)
}

// ErrorLog logs error-level messages with structured fields
// 记录带结构化字段的错误级别消息
func (l *zapLogger) ErrorLog(msg string, fields ...zap.Field) {
	l.Log(LevelError, msg, fields...)
}

// WithMeta creates a new logger with additional context fields
// Returns a new Logger instance with fields applied to all messages
//
// WithMeta 创建带附加上下文字段的新日志记录器
// 返回将字段应用于所有消息的新 Logger 实例
func (l *zapLogger) WithMeta(fields ...zap.Field) Logger {
	return &zapLogger{
		logger: l.logger.With(fields...),
		level:  l.level,
	}
}

// SetLevel changes the minimum severity this logger emits
// 更改此日志记录器发出的最低严重级别
func (l *zapLogger) SetLevel(level Level) {
	l.level = level
}

// Log emits a message at the given graded severity, gated by the current level
// 以给定的分级严重性发出消息，受当前级别过滤
func (l *zapLogger) Log(level Level, msg string, fields ...zap.Field) {
	if level > l.level {
		return
	}
	switch {
	case level <= LevelError:
		l.logger.Error(msg, fields...)
	case level == LevelWarning:
		l.logger.Warn(msg, fields...)
	case level == LevelNotice || level == LevelInfo:
		l.logger.Info(msg, fields...)
	default:
		l.logger.Debug(msg, fields...)
	}
}

// LogException logs an error value at error severity with its message attached
// 以 error 严重级别记录一个 error 值，并附加其消息
func (l *zapLogger) LogException(err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	l.Log(LevelError, err.Error(), append(fields, zap.Error(err))...)
}

// NopLogger implements Logger with no-operation methods
// Provides silent logging when testing and disabled logging scenarios
// All methods are no-ops, producing no output
//
// NopLogger 使用无操作方法实现 Logger
// 为测试或禁用日志场景提供静默日志记录
// 所有方法都是无操作，不产生输出
type NopLogger struct{}

func (NopLogger) DebugLog(string, ...zap.Field)    {}
func (NopLogger) ErrorLog(string, ...zap.Field)    {}
func (n NopLogger) WithMeta(...zap.Field) Logger   { return n }
func (NopLogger) SetLevel(Level)                   {}
func (NopLogger) Log(Level, string, ...zap.Field)  {}
func (NopLogger) LogException(error, ...zap.Field) {}

// NewNopLogger creates a logger that discards all messages
// Convenient for tests or when logging should be disabled
//
// NewNopLogger 创建一个丢弃所有消息的日志记录器
// 用于测试或需要禁用日志时
func NewNopLogger() Logger {
	return NopLogger{}
}
