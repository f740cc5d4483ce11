package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level.
// It implements PipelineHooks, CacheHooks and ServerHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks logging to logger with a "hook" prefix.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("hook")}
}

func (h *LogHooks) OnAnalyzeStart(_ context.Context, manifestNodes int) {
	h.logger.Debug("analyze start", "manifest_nodes", manifestNodes)
}

func (h *LogHooks) OnAnalyzeComplete(_ context.Context, dataNodes, products int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("analyze failed", "elapsed", d, "err", err)
		return
	}
	h.logger.Debug("analyze done", "data_nodes", dataNodes, "products", products, "elapsed", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, view string, formats []string) {
	h.logger.Debug("render start", "view", view, "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, view string, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "view", view, "elapsed", d, "err", err)
		return
	}
	h.logger.Debug("render done", "view", view, "formats", formats, "elapsed", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "elapsed", d)
}

func (h *LogHooks) OnSessionEvicted(_ context.Context, id string) {
	h.logger.Debug("session evicted", "id", id)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
