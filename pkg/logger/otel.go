/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

var (
	ErrOTelLoggingDisabled  = errors.New("OTel logging is disabled")
	ErrOTelEndpointRequired = errors.New("OTel endpoint is required when enabled")
)

const (
	maxAttributeValueLength = 4096
	componentField          = "component"
	defaultScope            = "inkmirror"
)

//nolint:gochecknoglobals // needed for proper OTel shutdown handling
var (
	loggerProviderMu sync.Mutex
	loggerProvider   *sdklog.LoggerProvider
)

// OTelWriter is a zerolog writer that re-emits every JSON line as an OTel log
// record. The component field selects the instrumentation scope.
type OTelWriter struct {
	ctx      context.Context
	provider *sdklog.LoggerProvider
	scopes   sync.Map
}

func NewOTELWriter(ctx context.Context, config OTelConfig) (*OTelWriter, error) {
	if !config.Enabled {
		return nil, ErrOTelLoggingDisabled
	}

	if config.Endpoint == "" {
		return nil, ErrOTelEndpointRequired
	}

	dial, err := config.dialSettings()
	if err != nil {
		return nil, err
	}

	exporter, err := otlploggrpc.New(ctx, dial.logOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, "")
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, sdklog.WithExportTimeout(config.batchTimeout()))),
	)

	loggerProviderMu.Lock()
	loggerProvider = provider
	loggerProviderMu.Unlock()

	global.SetLoggerProvider(provider)

	return &OTelWriter{ctx: ctx, provider: provider}, nil
}

// Write never fails; lines that are not JSON objects are dropped.
func (w *OTelWriter) Write(p []byte) (int, error) {
	fields, err := decodeFields(p)
	if err != nil {
		return len(p), nil
	}

	record, scope := buildRecord(fields)
	w.scope(scope).Emit(w.ctx, record)

	return len(p), nil
}

func (w *OTelWriter) scope(name string) log.Logger {
	if l, ok := w.scopes.Load(name); ok {
		return l.(log.Logger)
	}

	l, _ := w.scopes.LoadOrStore(name, w.provider.Logger(name))

	return l.(log.Logger)
}

func decodeFields(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}

	return fields, nil
}

// buildRecord consumes the zerolog envelope fields and turns the rest into
// attributes in key order.
func buildRecord(fields map[string]any) (log.Record, string) {
	var record log.Record

	if ts, ok := popString(fields, zerolog.TimestampFieldName); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			record.SetTimestamp(t)
		}
	}

	if level, ok := popString(fields, zerolog.LevelFieldName); ok {
		record.SetSeverity(severityOf(level))
		record.SetSeverityText(level)
	}

	if msg, ok := popString(fields, zerolog.MessageFieldName); ok {
		record.SetBody(log.StringValue(msg))
	}

	scope, _ := popString(fields, componentField)
	if scope == "" {
		scope = defaultScope
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		record.AddAttributes(attributeOf(k, fields[k]))
	}

	return record, scope
}

func popString(fields map[string]any, key string) (string, bool) {
	s, ok := fields[key].(string)
	if ok {
		delete(fields, key)
	}

	return s, ok
}

func attributeOf(key string, value any) log.KeyValue {
	switch v := value.(type) {
	case nil:
		return log.String(key, "null")
	case string:
		return log.String(key, clip(v))
	case bool:
		return log.Bool(key, v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return log.Int64(key, i)
		}

		if f, err := v.Float64(); err == nil {
			return log.Float64(key, f)
		}

		return log.String(key, v.String())
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return log.String(key, clip(fmt.Sprint(v)))
		}

		return log.String(key, clip(string(b)))
	}
}

// clip bounds s to maxAttributeValueLength bytes without splitting a rune.
func clip(s string) string {
	if len(s) <= maxAttributeValueLength {
		return s
	}

	cut := maxAttributeValueLength - len("...")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}

func severityOf(level string) log.Severity {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return log.SeverityInfo
	}

	switch parsed {
	case zerolog.TraceLevel:
		return log.SeverityTrace
	case zerolog.DebugLevel:
		return log.SeverityDebug
	case zerolog.WarnLevel:
		return log.SeverityWarn
	case zerolog.ErrorLevel:
		return log.SeverityError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return log.SeverityFatal
	default:
		return log.SeverityInfo
	}
}

func shutdownLoggerProvider(ctx context.Context) error {
	loggerProviderMu.Lock()
	defer loggerProviderMu.Unlock()

	if loggerProvider == nil {
		return nil
	}

	err := loggerProvider.Shutdown(ctx)
	loggerProvider = nil

	return err
}
