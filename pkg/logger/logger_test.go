package logger

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		value    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseLevel(tc.value))
		})
	}
}

func TestWithRepositoryWritesJSONFields(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")
	Init()

	var buf bytes.Buffer
	SetOutput(&buf)

	WithRepository("website").WithField("stage", "authors").Info("extracted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "website", entry["repository"])
	assert.Equal(t, "authors", entry["stage"])
	assert.Equal(t, "extracted", entry["msg"])
}

func TestConcurrentUseWithoutInit(t *testing.T) {
	var buf safeBuffer
	SetOutput(&buf)
	t.Cleanup(Init)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			WithRepository("repo").WithField("worker", i).Info("processing")
			_ = GetLogger()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, bytes.Count(buf.Bytes(), []byte("\n")))
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
