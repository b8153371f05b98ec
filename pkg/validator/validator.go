package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidateScene 验证场景标识符，使用位运算支持场景组合
//
//	const (
//	    SceneGenerate ValidateScene = 1 << 0
//	    SceneServe    ValidateScene = 1 << 1
//	)
//
//	// 规则同时适用于两个场景
//	SceneGenerate | SceneServe
type ValidateScene int64

// 预定义的通用验证场景常量
const (
	SceneNone ValidateScene = 0  // 无场景
	SceneAll  ValidateScene = -1 // 所有场景
)

// maxNestedDepth 最大嵌套验证深度
const maxNestedDepth = 32

// RuleValidator 场景化字段规则
//
// 返回格式：map[场景][字段名]规则，规则语法同 go-playground/validator 的 validate 标签。
// 字段名可以是结构体字段名或 json 名。
type RuleValidator interface {
	RuleValidation() map[ValidateScene]map[string]string
}

// CustomValidator 跨字段和业务规则验证，错误通过 report 报告
//
//	func (c *GeneratorConfig) CustomValidation(scene ValidateScene, report FuncReportError) {
//	    if c.DatacenterID > c.Layout().MaxDatacenterID() {
//	        report("generator.datacenter_id", "max", "31")
//	    }
//	}
type CustomValidator interface {
	CustomValidation(scene ValidateScene, report FuncReportError)
}

// FuncReportError 错误报告函数
//   - namespace: 字段路径，如 "generator.datacenter_id"
//   - tag: 验证标签，如 "required"、"layout"
//   - param: 验证参数
type FuncReportError func(namespace, tag, param string)

// Validator 场景化结构体验证器
type Validator struct {
	validate  *validator.Validate
	typeCache *sync.Map // reflect.Type → *typeCache
}

// typeCache 类型信息缓存
type typeCache struct {
	isRuleValidator   bool
	isCustomValidator bool
	validationRules   map[ValidateScene]map[string]string
}

var (
	defaultValidator *Validator
	once             sync.Once
)

// Default 默认验证器（单例）
func Default() *Validator {
	once.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// Validate 使用默认验证器验证对象
func Validate(obj any, scene ValidateScene) []*FieldError {
	return Default().Validate(obj, scene)
}

// Check 使用默认验证器验证对象，失败时返回 *ValidationContext
func Check(obj any, scene ValidateScene) error {
	return Default().Check(obj, scene)
}

// New 创建独立的验证器实例，错误中的字段名使用 json 标签
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{
		validate:  v,
		typeCache: &sync.Map{},
	}
}

// Validate 验证对象，收集所有错误后返回，nil 表示通过
//
// 验证顺序：
//  1. RuleValidator 提供的场景规则；未实现时使用 validate 标签
//  2. 递归验证嵌套结构体
//  3. CustomValidator 的业务规则
func (v *Validator) Validate(obj any, scene ValidateScene) []*FieldError {
	if obj == nil {
		return []*FieldError{
			NewFieldError(nil, "", "struct", "required", "").
				WithMessage("validation target cannot be nil"),
		}
	}

	ctx := NewValidationContext(scene)
	v.validateStruct(obj, ctx, "", false, 0)

	if ctx.HasErrors() {
		return ctx.Errors
	}
	return nil
}

// Check 同 Validate，失败时返回 *ValidationContext 作为 error
func (v *Validator) Check(obj any, scene ValidateScene) error {
	if errs := v.Validate(obj, scene); len(errs) > 0 {
		ctx := NewValidationContext(scene)
		ctx.AddErrors(errs)
		return ctx
	}
	return nil
}

// validateStruct 验证单个结构体
// tagsCovered 为 true 表示祖先已用 validate.Struct 校验过标签（go-playground 会自动深入嵌套字段）
func (v *Validator) validateStruct(obj any, ctx *ValidationContext, prefix string, tagsCovered bool, depth int) {
	if depth > maxNestedDepth {
		ctx.AddErrorByDetail(nil, "", prefix, "nest_depth", "", "nested validation depth exceeds maximum limit", prefix)
		return
	}

	val := reflect.ValueOf(obj)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
	} else {
		// 统一为指针，指针接收者实现的接口也能被识别
		ptr := reflect.New(val.Type())
		ptr.Elem().Set(val)
		obj, val = ptr.Interface(), ptr
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return
	}

	cache := v.getOrCacheTypeInfo(obj)

	switch {
	case cache.isRuleValidator:
		v.validateFieldsByRules(val, prefix, cache.validationRules, ctx)
	case !tagsCovered:
		v.validateFieldsByTags(obj, ctx)
		tagsCovered = true
	}

	v.validateNestedStructs(val, ctx, prefix, tagsCovered, depth)

	if cache.isCustomValidator {
		obj.(CustomValidator).CustomValidation(ctx.Scene, func(namespace, tag, param string) {
			ctx.AddErrorByDetail(nil, "", namespace, tag, param, "", namespace)
		})
	}
}

// validateFieldsByRules 按当前场景匹配的规则逐字段验证
func (v *Validator) validateFieldsByRules(val reflect.Value, prefix string, rules map[ValidateScene]map[string]string, ctx *ValidationContext) {
	matched := make(map[string]string)
	for scene, sceneRules := range rules {
		if scene&ctx.Scene != 0 {
			for fieldName, rule := range sceneRules {
				matched[fieldName] = rule
			}
		}
	}

	typ := val.Type()
	for fieldName, rule := range matched {
		if rule == "" {
			continue
		}

		sf, ok := typ.FieldByName(fieldName)
		if !ok {
			sf, ok = findFieldByJSONTag(typ, fieldName)
		}
		if !ok || !sf.IsExported() {
			continue
		}

		field := val.FieldByIndex(sf.Index)
		err := v.validate.Var(field.Interface(), rule)
		if err == nil {
			continue
		}

		jsonName := jsonNameOf(sf)
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			ctx.AddErrorByDetail(field.Interface(), sf.Name, jsonName, "", "", err.Error(), join(prefix, jsonName))
			continue
		}
		for _, e := range validationErrors {
			ctx.AddErrorByDetail(e.Value(), sf.Name, jsonName, e.Tag(), e.Param(), "", join(prefix, jsonName))
		}
	}
}

// validateFieldsByTags 使用 validate 标签验证
func (v *Validator) validateFieldsByTags(obj any, ctx *ValidationContext) {
	err := v.validate.Struct(obj)
	if err == nil {
		return
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		ctx.AddErrorByDetail(nil, "", "", "", "", err.Error(), "")
		return
	}
	for _, e := range validationErrors {
		ctx.AddErrorByValidator(e)
	}
}

// validateNestedStructs 递归验证嵌套结构体字段
func (v *Validator) validateNestedStructs(val reflect.Value, ctx *ValidationContext, prefix string, tagsCovered bool, depth int) {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		kind := field.Kind()
		if kind == reflect.Ptr {
			if field.IsNil() {
				continue
			}
			kind = field.Elem().Kind()
		}
		if kind != reflect.Struct || isOpaqueStruct(field.Type()) {
			continue
		}

		nested := field
		if field.Kind() != reflect.Ptr {
			nested = field.Addr()
		}
		v.validateStruct(nested.Interface(), ctx, join(prefix, jsonNameOf(sf)), tagsCovered, depth+1)
	}
}

// ClearTypeCache 清除类型缓存
func (v *Validator) ClearTypeCache() {
	v.typeCache = &sync.Map{}
}

// GetUnderlyingValidator 获取底层的 go-playground/validator 实例，用于注册自定义标签
func (v *Validator) GetUnderlyingValidator() *validator.Validate {
	return v.validate
}

func (v *Validator) getOrCacheTypeInfo(obj any) *typeCache {
	typ := reflect.TypeOf(obj)
	if cached, ok := v.typeCache.Load(typ); ok {
		return cached.(*typeCache)
	}

	cache := &typeCache{}
	if ruleValidator, ok := obj.(RuleValidator); ok {
		cache.isRuleValidator = true
		cache.validationRules = ruleValidator.RuleValidation()
	}
	_, cache.isCustomValidator = obj.(CustomValidator)

	actual, _ := v.typeCache.LoadOrStore(typ, cache)
	return actual.(*typeCache)
}

// isOpaqueStruct time.Time 等不需要深入的结构体
func isOpaqueStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() == "time"
}

func findFieldByJSONTag(typ reflect.Type, jsonTag string) (reflect.StructField, bool) {
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if strings.SplitN(sf.Tag.Get("json"), ",", 2)[0] == jsonTag {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

func jsonNameOf(sf reflect.StructField) string {
	name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
