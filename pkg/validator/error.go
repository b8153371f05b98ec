package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationContext 验证上下文，收集一次验证中的所有错误
// 说明：实现 error 接口，可直接作为验证失败的错误返回
type ValidationContext struct {
	Scene   ValidateScene `json:"scene"`
	Message string        `json:"message,omitempty"`
	Errors  []*FieldError `json:"errors,omitempty"`
}

// FieldError 单个字段的验证错误
// 国际化时，可以通过 Namespace + Tag 和 Param 查找对应的翻译
type FieldError struct {
	FieldName string `json:"field_name,omitempty"` // 结构体字段名
	JsonName  string `json:"json_name"`            // JSON 字段名
	Tag       string `json:"tag"`                  // 验证标签（如 required, min）
	Param     string `json:"param,omitempty"`      // 验证参数（如 min=3 中的 "3"）
	Value     any    `json:"value,omitempty"`      // 字段的实际值
	Message   string `json:"message,omitempty"`    // 友好的错误消息
	Namespace string `json:"namespace,omitempty"`  // 完整路径，如 generator.worker_id
}

// NewValidationContext 创建验证上下文
func NewValidationContext(scene ValidateScene) *ValidationContext {
	return &ValidationContext{
		Scene:  scene,
		Errors: make([]*FieldError, 0),
	}
}

// NewFieldError 创建字段错误
func NewFieldError(value any, fieldName, jsonName, tag, param string) *FieldError {
	return &FieldError{
		FieldName: fieldName,
		JsonName:  jsonName,
		Tag:       tag,
		Param:     param,
		Value:     value,
		Namespace: jsonName,
	}
}

// Error 实现 error 接口
func (vc *ValidationContext) Error() string {
	if len(vc.Errors) == 0 {
		if len(vc.Message) == 0 {
			return "validation passed: no errors"
		}
		return fmt.Sprintf("validation failed: %s", vc.Message)
	}

	parts := make([]string, len(vc.Errors))
	for i, err := range vc.Errors {
		parts[i] = err.String()
	}
	return strings.Join(parts, "; ")
}

// String 返回友好的错误信息
func (fe *FieldError) String() string {
	name := fe.Namespace
	if name == "" {
		name = fe.JsonName
	}
	if fe.Message != "" {
		return fmt.Sprintf("field '%s': %s", name, fe.Message)
	}
	if fe.Param != "" {
		return fmt.Sprintf("field '%s' validation failed on tag '%s=%s'", name, fe.Tag, fe.Param)
	}
	return fmt.Sprintf("field '%s' validation failed on tag '%s'", name, fe.Tag)
}

// HasErrors 检查是否有验证错误
func (vc *ValidationContext) HasErrors() bool {
	return len(vc.Errors) > 0
}

// AddError 添加字段错误
func (vc *ValidationContext) AddError(err *FieldError) {
	if err != nil {
		vc.Errors = append(vc.Errors, err)
	}
}

// AddErrorByValidator 通过 go-playground 的 FieldError 添加字段错误
func (vc *ValidationContext) AddErrorByValidator(fe validator.FieldError) {
	vc.Errors = append(vc.Errors, &FieldError{
		FieldName: fe.StructField(),
		JsonName:  fe.Field(),
		Tag:       fe.Tag(),
		Param:     fe.Param(),
		Value:     fe.Value(),
		Namespace: trimRoot(fe.Namespace()),
	})
}

// AddErrorByDetail 通过详细信息添加字段错误
func (vc *ValidationContext) AddErrorByDetail(value any, field, json, tag, param, message, namespace string) {
	vc.Errors = append(vc.Errors, &FieldError{
		FieldName: field,
		JsonName:  json,
		Tag:       tag,
		Param:     param,
		Value:     value,
		Message:   message,
		Namespace: namespace,
	})
}

// AddErrors 批量添加字段错误
func (vc *ValidationContext) AddErrors(errors []*FieldError) {
	vc.Errors = append(vc.Errors, errors...)
}

// ToJSON 转换为 JSON 格式
func (vc *ValidationContext) ToJSON() ([]byte, error) {
	return json.Marshal(vc)
}

// GetErrorsByNamespace 按命名空间获取错误
func (vc *ValidationContext) GetErrorsByNamespace(namespace string) []*FieldError {
	var errors []*FieldError
	for _, err := range vc.Errors {
		if err.Namespace == namespace {
			errors = append(errors, err)
		}
	}
	return errors
}

// GetErrorsByTag 按验证标签获取错误
func (vc *ValidationContext) GetErrorsByTag(tag string) []*FieldError {
	var errors []*FieldError
	for _, err := range vc.Errors {
		if err.Tag == tag {
			errors = append(errors, err)
		}
	}
	return errors
}

// WithMessage 设置错误消息
func (fe *FieldError) WithMessage(message string) *FieldError {
	fe.Message = message
	return fe
}

// WithNamespace 设置命名空间
func (fe *FieldError) WithNamespace(namespace string) *FieldError {
	fe.Namespace = namespace
	return fe
}

// trimRoot 去掉 go-playground 命名空间开头的结构体类型名（Config.log.level → log.level）
func trimRoot(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
