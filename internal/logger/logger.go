package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New 根据运行模式构造 zap logger，debug 模式输出开发格式
func New(mode string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if strings.EqualFold(strings.TrimSpace(mode), "debug") {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l
}

// OrNop 在未注入 logger 时返回空实现，便于服务与测试共用构造函数
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
