package logging

import (
	"bytes"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
)

func TestNew_FiltersByLevel(t *testing.T) {
	tests := []struct {
		lvl       string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{lvl: "debug", wantDebug: true, wantInfo: true, wantWarn: true},
		{lvl: "info", wantInfo: true, wantWarn: true},
		{lvl: "WARN", wantWarn: true},
		{lvl: "error"},
		{lvl: "", wantInfo: true, wantWarn: true},
	}
	for _, tt := range tests {
		t.Run(tt.lvl, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.lvl)

			level.Debug(logger).Log("msg", "d")
			level.Info(logger).Log("msg", "i")
			level.Warn(logger).Log("msg", "w")
			level.Error(logger).Log("msg", "e")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("msg=d")), out)
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("msg=i")), out)
			assert.Equal(t, tt.wantWarn, bytes.Contains(buf.Bytes(), []byte("msg=w")), out)
			assert.Contains(t, out, "msg=e")
		})
	}
}

func TestNew_Prefixes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")
	level.Info(logger).Log("msg", "hello")

	assert.Contains(t, buf.String(), "ts=")
	assert.Contains(t, buf.String(), "caller=")
	assert.Contains(t, buf.String(), "level=info")
}
