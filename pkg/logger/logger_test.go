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
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func TestNew_DebugOverridesLevel(t *testing.T) {
	l, err := New(context.Background(), &Config{Level: "warn", Debug: true, Output: "stderr"})
	require.NoError(t, err)

	impl, ok := l.(*zerologLogger)
	require.True(t, ok)
	assert.Equal(t, zerolog.DebugLevel, impl.logger.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(context.Background(), &Config{Level: "loud"})
	require.Error(t, err)
}

func TestWriterLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer

	l := NewWriterLogger(&buf, zerolog.InfoLevel)
	component := l.WithComponent("worker")
	component.Info().Str("work_type", "PERIODIC").Msg("refresh started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "worker", entry["component"])
	assert.Equal(t, "PERIODIC", entry["work_type"])
	assert.Equal(t, "refresh started", entry["message"])
}

func TestWriterLogger_SetDebug(t *testing.T) {
	var buf bytes.Buffer

	l := NewWriterLogger(&buf, zerolog.InfoLevel)
	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	l.SetDebug(true)
	l.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-team=ink, authorization = Bearer abc")
	t.Setenv("OTEL_SERVICE_NAME", "")

	config := DefaultConfig()
	assert.Equal(t, "info", config.Level)
	assert.Equal(t, "stdout", config.Output)
	assert.Equal(t, defaultServiceName, config.OTel.ServiceName)
	assert.Equal(t, "ink", config.OTel.Headers["x-team"])
	assert.Equal(t, "Bearer abc", config.OTel.Headers["authorization"])
	assert.False(t, config.OTel.Enabled)
}

func TestNewOTELWriter_RequiresEndpoint(t *testing.T) {
	_, err := NewOTELWriter(context.Background(), OTelConfig{Enabled: true})
	require.ErrorIs(t, err, ErrOTelEndpointRequired)

	_, err = NewOTELWriter(context.Background(), OTelConfig{Endpoint: "localhost:4317"})
	require.ErrorIs(t, err, ErrOTelLoggingDisabled)
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	_, err := InitializeMetrics(context.Background(), MetricsConfig{})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc"))

	long := clip(strings.Repeat("x", maxAttributeValueLength+10))
	assert.Len(t, long, maxAttributeValueLength)
	assert.True(t, strings.HasSuffix(long, "..."))

	runes := clip(strings.Repeat("é", maxAttributeValueLength))
	assert.True(t, utf8.ValidString(runes))
	assert.LessOrEqual(t, len(runes), maxAttributeValueLength)
}

func TestSeverityOf(t *testing.T) {
	assert.Equal(t, otellog.SeverityWarn, severityOf("warn"))
	assert.Equal(t, otellog.SeverityFatal, severityOf("panic"))
	assert.Equal(t, otellog.SeverityDebug, severityOf("DEBUG"))
	assert.Equal(t, otellog.SeverityInfo, severityOf("whatever"))
}

func TestBuildRecord(t *testing.T) {
	fields, err := decodeFields([]byte(`{"level":"warn","time":"2026-01-02T03:04:05Z","component":"worker",` +
		`"message":"Image refresh failed","attempt":3,"latency":0.25,"setup_required":true,"meta":{"status":429}}`))
	require.NoError(t, err)

	record, scope := buildRecord(fields)
	assert.Equal(t, "worker", scope)
	assert.Equal(t, otellog.SeverityWarn, record.Severity())
	assert.Equal(t, "warn", record.SeverityText())
	assert.Equal(t, "Image refresh failed", record.Body().AsString())
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), record.Timestamp().UTC())

	attrs := make(map[string]otellog.Value)
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	require.Len(t, attrs, 4)
	assert.Equal(t, int64(3), attrs["attempt"].AsInt64())
	assert.InDelta(t, 0.25, attrs["latency"].AsFloat64(), 1e-9)
	assert.True(t, attrs["setup_required"].AsBool())
	assert.JSONEq(t, `{"status":429}`, attrs["meta"].AsString())
}

func TestBuildRecord_DefaultScope(t *testing.T) {
	fields, err := decodeFields([]byte(`{"level":"info","message":"ok"}`))
	require.NoError(t, err)

	_, scope := buildRecord(fields)
	assert.Equal(t, defaultScope, scope)

	_, err = decodeFields([]byte("not json"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, outputStdout, cfg.Output)

	require.ErrorIs(t, (&Config{Output: "syslog"}).Validate(), errInvalidOutput)
	require.Error(t, (&Config{Level: "chatty"}).Validate())
}

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y"}, parseHeaders(" a = 1 ,b=x=y,broken,=skip"))
	assert.Empty(t, parseHeaders(""))
}

func TestNewComponentLogger(t *testing.T) {
	var buf bytes.Buffer

	l := NewComponentLogger(NewWriterLogger(&buf, zerolog.InfoLevel), "scheduler")
	l.Info().Msg("scheduled")

	assert.Contains(t, buf.String(), `"component":"scheduler"`)
}
