package infra

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"

	"license-entitlement-service/config"
)

// TraceHandler はトレース情報をログに付与するslogハンドラ。
type TraceHandler struct {
	handler     slog.Handler
	projectID   string
	otelEnabled bool
}

// NewTraceHandler はトレース情報付きのslogハンドラを生成する。
func NewTraceHandler(handler slog.Handler, cfg *config.Config) *TraceHandler {
	return &TraceHandler{
		handler:     handler,
		projectID:   cfg.GoogleCloudProject,
		otelEnabled: cfg.OtelEnabled,
	}
}

// Enabled はハンドラがログを処理するかどうかを返す。
func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle はログレコードを処理し、トレース情報を付与する。
func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.otelEnabled {
		if spanCtx := trace.SpanFromContext(ctx).SpanContext(); spanCtx.IsValid() {
			r.AddAttrs(h.traceAttrs(spanCtx)...)
		}
	}
	return h.handler.Handle(ctx, r)
}

// traceAttrs はスパンコンテキストからログ属性を組み立てる。
// Google Cloud Logging連携用フィールドはプロジェクトIDがある場合のみ付与する。
func (h *TraceHandler) traceAttrs(spanCtx trace.SpanContext) []slog.Attr {
	traceID := spanCtx.TraceID().String()
	spanID := spanCtx.SpanID().String()

	attrs := []slog.Attr{
		slog.String("trace", traceID),
		slog.String("spanId", spanID),
		slog.Bool("traceSampled", spanCtx.IsSampled()),
	}
	if h.projectID != "" {
		attrs = append(attrs,
			slog.String("logging.googleapis.com/trace",
				"projects/"+h.projectID+"/traces/"+traceID),
			slog.String("logging.googleapis.com/spanId", spanID),
		)
	}
	return attrs
}

// WithAttrs は属性を追加した新しいハンドラを返す。
func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{
		handler:     h.handler.WithAttrs(attrs),
		projectID:   h.projectID,
		otelEnabled: h.otelEnabled,
	}
}

// WithGroup はグループを追加した新しいハンドラを返す。
func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{
		handler:     h.handler.WithGroup(name),
		projectID:   h.projectID,
		otelEnabled: h.otelEnabled,
	}
}

// ParseLogLevel は設定文字列をslogのレベルに変換する。未知の値はINFO。
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger はトレース情報付きのグローバルJSONロガーを設定する。
// CLIの判定結果は標準出力に出すため、ログはすべて標準エラーに出力する。
func SetupLogger(cfg *config.Config) {
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLogLevel(cfg.LogLevel),
	})
	slog.SetDefault(slog.New(NewTraceHandler(jsonHandler, cfg)))
}
