// Package biz 实现问答服务的核心业务逻辑。
//
// 流水线分为四个阶段：
//   - RetrieverPool 按来源加载向量索引，单个来源失败不影响整体启动
//   - ContextAssembler 并发检索所有可用来源，组装带来源标注的上下文
//   - Generator 基于固定模板调用 LLM 生成答案
//   - QAService 串联以上组件并做错误分类
package biz
