// Package metrics 提供问答服务的业务指标收集。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// QAMetrics 问答服务业务指标。
type QAMetrics struct {
	// 问答指标
	questionsTotal   uint64 // 总问答次数
	questionsInvalid uint64 // 无效问题次数
	questionsNoCtx   uint64 // 无上下文次数
	questionsErrors  uint64 // 生成失败次数

	// 检索指标
	retrievalTotal    uint64  // 检索轮次总数（每个问题一轮）
	retrievalErrors   uint64  // 检索失败次数（按来源计）
	retrievalDuration float64 // 检索总耗时（秒）

	// LLM 调用指标
	llmCallsTotal       uint64  // LLM 总调用次数
	llmCallsErrors      uint64  // LLM 调用失败次数
	llmCallsDuration    float64 // LLM 调用总耗时（秒）
	llmTokensPrompt     uint64  // Prompt tokens 总数
	llmTokensCompletion uint64  // Completion tokens 总数

	startTime  time.Time
	durationMu sync.Mutex
}

// globalQAMetrics 全局指标实例。
var (
	globalQAMetrics *QAMetrics
	qaMetricsOnce   sync.Once
)

// GetQAMetrics 获取全局问答指标实例。
func GetQAMetrics() *QAMetrics {
	qaMetricsOnce.Do(func() {
		globalQAMetrics = &QAMetrics{
			startTime: time.Now(),
		}
	})
	return globalQAMetrics
}

// RecordQuestion 记录一次完整问答。
func (m *QAMetrics) RecordQuestion(outcome string) {
	atomic.AddUint64(&m.questionsTotal, 1)
	switch outcome {
	case "invalid":
		atomic.AddUint64(&m.questionsInvalid, 1)
	case "no_context":
		atomic.AddUint64(&m.questionsNoCtx, 1)
	case "generation_error":
		atomic.AddUint64(&m.questionsErrors, 1)
	}
}

// RecordRetrieval 记录一轮检索（一个问题对所有来源检索一次），
// failedSources 为该轮中检索失败的来源数量。
func (m *QAMetrics) RecordRetrieval(duration time.Duration, failedSources int) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if failedSources > 0 {
		atomic.AddUint64(&m.retrievalErrors, uint64(failedSources))
	}

	m.durationMu.Lock()
	m.retrievalDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordLLMCall 记录一次 LLM 调用。
func (m *QAMetrics) RecordLLMCall(duration time.Duration, promptTokens, completionTokens int, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()

	if promptTokens > 0 {
		atomic.AddUint64(&m.llmTokensPrompt, uint64(promptTokens))
	}
	if completionTokens > 0 {
		atomic.AddUint64(&m.llmTokensCompletion, uint64(completionTokens))
	}
}

// Export 导出 Prometheus 格式指标。
func (m *QAMetrics) Export(namespace, subsystem string) string {
	var sb strings.Builder
	prefix := namespace
	if subsystem != "" {
		prefix = prefix + "_" + subsystem
	}

	counter := func(name, help string, value uint64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s counter\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %d\n\n", prefix, name, value))
	}

	counter("questions_total", "Total number of questions.", atomic.LoadUint64(&m.questionsTotal))
	counter("questions_invalid_total", "Number of invalid questions.", atomic.LoadUint64(&m.questionsInvalid))
	counter("questions_no_context_total", "Number of questions with no retrieved context.", atomic.LoadUint64(&m.questionsNoCtx))
	counter("questions_generation_errors_total", "Number of generation failures.", atomic.LoadUint64(&m.questionsErrors))
	counter("retrieval_total", "Total number of retrieval rounds.", atomic.LoadUint64(&m.retrievalTotal))
	counter("retrieval_errors_total", "Number of per-source retrieval failures.", atomic.LoadUint64(&m.retrievalErrors))
	counter("llm_calls_total", "Total number of LLM calls.", atomic.LoadUint64(&m.llmCallsTotal))
	counter("llm_calls_errors_total", "Number of LLM call errors.", atomic.LoadUint64(&m.llmCallsErrors))
	counter("llm_tokens_prompt_total", "Total prompt tokens.", atomic.LoadUint64(&m.llmTokensPrompt))
	counter("llm_tokens_completion_total", "Total completion tokens.", atomic.LoadUint64(&m.llmTokensCompletion))

	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	sb.WriteString(fmt.Sprintf("# HELP %s_retrieval_duration_seconds_total Total retrieval duration.\n", prefix))
	sb.WriteString(fmt.Sprintf("# TYPE %s_retrieval_duration_seconds_total counter\n", prefix))
	sb.WriteString(fmt.Sprintf("%s_retrieval_duration_seconds_total %.6f\n\n", prefix, retrievalDuration))

	sb.WriteString(fmt.Sprintf("# HELP %s_llm_calls_duration_seconds_total Total LLM call duration.\n", prefix))
	sb.WriteString(fmt.Sprintf("# TYPE %s_llm_calls_duration_seconds_total counter\n", prefix))
	sb.WriteString(fmt.Sprintf("%s_llm_calls_duration_seconds_total %.6f\n\n", prefix, llmDuration))

	uptime := time.Since(m.startTime).Seconds()
	sb.WriteString(fmt.Sprintf("# HELP %s_uptime_seconds Service uptime in seconds.\n", prefix))
	sb.WriteString(fmt.Sprintf("# TYPE %s_uptime_seconds gauge\n", prefix))
	sb.WriteString(fmt.Sprintf("%s_uptime_seconds %.2f\n\n", prefix, uptime))

	return sb.String()
}

// Stats 返回当前统计信息（用于 API）。
func (m *QAMetrics) Stats() map[string]interface{} {
	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	m.durationMu.Unlock()

	retrievalTotal := atomic.LoadUint64(&m.retrievalTotal)
	avgRetrievalDuration := 0.0
	if retrievalTotal > 0 {
		avgRetrievalDuration = retrievalDuration / float64(retrievalTotal)
	}

	llmTotal := atomic.LoadUint64(&m.llmCallsTotal)
	avgLLMDuration := 0.0
	if llmTotal > 0 {
		avgLLMDuration = llmDuration / float64(llmTotal)
	}

	return map[string]interface{}{
		"questions": map[string]interface{}{
			"total":             atomic.LoadUint64(&m.questionsTotal),
			"invalid":           atomic.LoadUint64(&m.questionsInvalid),
			"no_context":        atomic.LoadUint64(&m.questionsNoCtx),
			"generation_errors": atomic.LoadUint64(&m.questionsErrors),
		},
		"retrieval": map[string]interface{}{
			"total":               retrievalTotal,
			"errors":              atomic.LoadUint64(&m.retrievalErrors),
			"total_duration_secs": retrievalDuration,
			"avg_duration_secs":   avgRetrievalDuration,
		},
		"llm": map[string]interface{}{
			"calls_total":         llmTotal,
			"errors":              atomic.LoadUint64(&m.llmCallsErrors),
			"total_duration_secs": llmDuration,
			"avg_duration_secs":   avgLLMDuration,
			"tokens_prompt":       atomic.LoadUint64(&m.llmTokensPrompt),
			"tokens_completion":   atomic.LoadUint64(&m.llmTokensCompletion),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset 重置所有指标（仅用于测试）。
func (m *QAMetrics) Reset() {
	atomic.StoreUint64(&m.questionsTotal, 0)
	atomic.StoreUint64(&m.questionsInvalid, 0)
	atomic.StoreUint64(&m.questionsNoCtx, 0)
	atomic.StoreUint64(&m.questionsErrors, 0)
	atomic.StoreUint64(&m.retrievalTotal, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.llmTokensPrompt, 0)
	atomic.StoreUint64(&m.llmTokensCompletion, 0)

	m.durationMu.Lock()
	m.retrievalDuration = 0
	m.llmCallsDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
