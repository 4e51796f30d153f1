package handler

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"

	"github.com/rl1809/laventory/internal/adapter/handler/ledgerpb"
	"github.com/rl1809/laventory/internal/metrics"
)

// NewGRPCServer registers h as the laventory.v1.Ledger service. m may be nil.
func NewGRPCServer(h *GRPCHandler, m *metrics.ServerMetrics, logger *slog.Logger) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logCalls(logger)}
	if m != nil {
		interceptors = append(interceptors, observeCalls(m))
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.MaxRecvMsgSize(2*maxImageSize),
	)
	ledgerpb.RegisterLedgerServer(s, h)
	return s
}

type kindReply interface {
	GetErrorKind() string
}

func replyKind(resp any, err error) string {
	if err != nil {
		return "error"
	}
	if r, ok := resp.(kindReply); ok && r.GetErrorKind() != "" {
		return r.GetErrorKind()
	}
	return "ok"
}

func logCalls(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []slog.Attr{
			slog.String("method", info.FullMethod),
			slog.String("result", replyKind(resp, err)),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			logger.LogAttrs(ctx, slog.LevelError, "rpc failed", attrs...)
			return resp, err
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "rpc", attrs...)
		return resp, nil
	}
}

func observeCalls(m *metrics.ServerMetrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.ObserveStatus(info.FullMethod, replyKind(resp, err), time.Since(start))
		return resp, err
	}
}
