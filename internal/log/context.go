// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log provides structured logging utilities.
package log

import (
	"context"

	"github.com/rs/zerolog"
)

type correlationKey struct{}

// correlation holds the identifiers that follow a request or job through
// every component it touches.
type correlation struct {
	requestID string
	jobID     string
	channel   string
	source    string
}

func correlationFrom(ctx context.Context) correlation {
	if ctx == nil {
		return correlation{}
	}
	c, _ := ctx.Value(correlationKey{}).(correlation)
	return c
}

func withCorrelation(ctx context.Context, update func(*correlation)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := correlationFrom(ctx)
	update(&c)
	return context.WithValue(ctx, correlationKey{}, c)
}

// ContextWithRequestID stores the HTTP request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, func(c *correlation) { c.requestID = id })
}

// ContextWithJobID stores the detection job ID in the context.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, func(c *correlation) { c.jobID = id })
}

// ContextWithRun stores the channel and playlist source of a detection run.
// source must already be safe to log.
func ContextWithRun(ctx context.Context, channel, source string) context.Context {
	return withCorrelation(ctx, func(c *correlation) {
		c.channel = channel
		c.source = source
	})
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx).requestID
}

// JobIDFromContext returns the job ID, or "".
func JobIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx).jobID
}

// WithContext adds every correlation field present in ctx to logger.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	c := correlationFrom(ctx)
	if c == (correlation{}) {
		return logger
	}
	b := logger.With()
	for _, f := range []struct{ key, val string }{
		{FieldRequestID, c.requestID},
		{FieldJobID, c.jobID},
		{FieldChannel, c.channel},
		{FieldSource, c.source},
	} {
		if f.val != "" {
			b = b.Str(f.key, f.val)
		}
	}
	return b.Logger()
}

// WithComponentFromContext returns the component logger enriched with the
// correlation fields of ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}

// FromContext returns the logger attached to ctx, or the base logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	b := Base()
	return &b
}
