package config

import (
	"fmt"
	"strings"

	"github.com/weisyn/contract-transcode/internal/config/transcode"
	"github.com/weisyn/contract-transcode/pkg/types"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

var validLogLevels = map[string]bool{
	string(types.DebugLevel): true,
	string(types.InfoLevel):  true,
	string(types.WarnLevel):  true,
	string(types.ErrorLevel): true,
	string(types.FatalLevel): true,
}

// ValidateAppConfig 验证用户配置
//
// 与各配置包的默认值回退不同，这里对显式写出的非法值直接报错，
// 避免配置写错后静默使用默认值。nil 配置视为全部使用默认值。
func ValidateAppConfig(appConfig *types.AppConfig) error {
	if appConfig == nil {
		return nil
	}
	var errors []error

	if appConfig.Environment != nil {
		switch strings.ToLower(strings.TrimSpace(*appConfig.Environment)) {
		case "dev", "test", "prod":
		default:
			errors = append(errors, &ValidationError{
				Field:   "environment",
				Message: fmt.Sprintf("无效的运行环境 %q，可选值：dev | test | prod", *appConfig.Environment),
			})
		}
	}

	if appConfig.Log != nil && appConfig.Log.Level != nil && !validLogLevels[*appConfig.Log.Level] {
		errors = append(errors, &ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("无效的日志级别 %q", *appConfig.Log.Level),
		})
	}

	if tc := appConfig.Transcode; tc != nil {
		if tc.SS58Prefix != nil && *tc.SS58Prefix > transcode.MaxSS58Prefix() {
			errors = append(errors, &ValidationError{
				Field:   "transcode.ss58_prefix",
				Message: fmt.Sprintf("SS58 前缀 %d 超出范围，必须 <= %d", *tc.SS58Prefix, transcode.MaxSS58Prefix()),
			})
		}
		if tc.MaxDepth != nil && *tc.MaxDepth <= 0 {
			errors = append(errors, &ValidationError{
				Field:   "transcode.max_depth",
				Message: "max_depth 必须 > 0",
			})
		}
	}

	if ac := appConfig.Artifacts; ac != nil {
		if ac.CacheSize != nil && *ac.CacheSize <= 0 {
			errors = append(errors, &ValidationError{
				Field:   "artifacts.cache_size",
				Message: "cache_size 必须 > 0",
			})
		}
		for i, ext := range ac.Extensions {
			if strings.TrimSpace(ext) == "" {
				errors = append(errors, &ValidationError{
					Field:   fmt.Sprintf("artifacts.extensions[%d]", i),
					Message: "扩展名不能为空",
				})
			}
		}
	}

	if len(errors) > 0 {
		return &ValidationErrors{Errors: errors}
	}
	return nil
}

// ValidationErrors 多个验证错误
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msg := "配置验证失败，发现以下问题：\n"
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}
