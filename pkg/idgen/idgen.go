// Package idgen 分布式唯一ID生成的便捷入口
//
// 简单场景直接使用 GenerateID / GenerateIDs，它们使用全局注册表中身份为 (0, 0) 的默认生成器。
// 多实例部署时每个进程需要唯一的 (数据中心ID, 工作机器ID)，应通过 registry 或 snowflake 包显式创建。
package idgen

import (
	"fmt"

	"katydid-common-idgen/pkg/idgen/core"
	"katydid-common-idgen/pkg/idgen/domain"
	"katydid-common-idgen/pkg/idgen/registry"
)

// GenerateID 使用默认生成器生成ID
func GenerateID() (domain.ID, error) {
	gen, err := registry.GetOrCreateDefaultGenerator()
	if err != nil {
		return 0, fmt.Errorf("failed to get default generator: %w", err)
	}

	id, err := gen.NextID()
	if err != nil {
		return 0, err
	}
	return domain.ID(id), nil
}

// GenerateIDs 使用默认生成器批量生成ID
// 说明：出错时返回已生成的部分ID和错误
func GenerateIDs(count int) (domain.IDSlice, error) {
	gen, err := registry.GetOrCreateDefaultGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to get default generator: %w", err)
	}

	ids, err := gen.NextIDBatch(count)
	return domain.FromInt64s(ids), err
}

// Parse 解析ID字符串（十进制、0x、0b）并提取元信息
func Parse(s string) (*core.IDInfo, error) {
	id, err := domain.ParseID(s)
	if err != nil {
		return nil, err
	}
	return id.Parse()
}
