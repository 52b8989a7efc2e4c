package filter

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/adapters/cache"
	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/edgecase"
	"github.com/mikey/content-risk-filter/internal/fingerprint"
	"github.com/mikey/content-risk-filter/internal/monitor"
	"github.com/mikey/content-risk-filter/internal/normalize"
	"github.com/mikey/content-risk-filter/internal/rules"
)

const (
	benignLine  = "Just a quiet day at the lake with my family and a good book"
	abusiveLine = "fuck this and that is fucking bullshit"
)

// syncBuffer serializes access between the filter goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func lineCount(s string) int {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "\n"))
}

func newPipeService(opts core.ServiceOptions) *core.AnalysisService {
	logger := zap.NewNop()
	return core.NewAnalysisService(
		normalize.NewNormalizer(logger),
		edgecase.NewClassifier(logger),
		rules.NewCatalog(nil),
		cache.NewMemoryCache(logger, 64, time.Minute, 0),
		nil,
		monitor.NewMonitor(monitor.Config{}, logger),
		logger,
		core.DefaultEngineConfig(),
		opts,
	)
}

func TestPipeFilterStreamsVerdicts(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	in := strings.NewReader(benignLine + "\n\n   \n" + abusiveLine + "\n")
	out := &syncBuffer{}

	f := NewPipeFilter(newPipeService(core.ServiceOptions{}), zap.NewNop(), in, out, time.Second)
	require.NoError(f.Start())
	t.Cleanup(func() { f.Stop() })

	require.Eventually(func() bool {
		return lineCount(out.String()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(lines, 2)

	var first, second core.Verdict
	require.NoError(json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(core.Fingerprint(fingerprint.Of(benignLine)), first.Fingerprint)
	assert.Equal(core.DecisionAllow, first.Decision)

	assert.Equal(core.Fingerprint(fingerprint.Of(abusiveLine)), second.Fingerprint)
	assert.Equal(core.DecisionReject, second.Decision)
	assert.Greater(second.Score, 0.7)
}

func TestPipeFilterRepeatedLineServedFromCache(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	in := strings.NewReader(benignLine + "\n" + benignLine + "\n")
	out := &syncBuffer{}

	opts := core.ServiceOptions{CacheEnabled: true, CacheTTL: time.Minute}
	f := NewPipeFilter(newPipeService(opts), zap.NewNop(), in, out, time.Second)
	require.NoError(f.Start())
	t.Cleanup(func() { f.Stop() })

	require.Eventually(func() bool {
		return lineCount(out.String()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(lines, 2)

	var first, second core.Verdict
	require.NoError(json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(json.Unmarshal([]byte(lines[1]), &second))

	assert.False(first.Cached)
	assert.True(second.Cached)
	assert.Equal(first.Fingerprint, second.Fingerprint)
}

func TestPipeFilterStopEndsStream(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	pr, pw := io.Pipe()
	t.Cleanup(func() {
		pw.Close()
		pr.Close()
	})
	out := &syncBuffer{}

	f := NewPipeFilter(newPipeService(core.ServiceOptions{}), zap.NewNop(), pr, out, time.Second)
	require.NoError(f.Start())

	_, err := io.WriteString(pw, benignLine+"\n")
	require.NoError(err)
	require.Eventually(func() bool {
		return lineCount(out.String()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(f.Stop())

	// The next line wakes the blocked read, and the canceled context ends
	// the loop before anything is analyzed.
	_, err = io.WriteString(pw, abusiveLine+"\n")
	require.NoError(err)

	assert.Never(func() bool {
		return lineCount(out.String()) > 1
	}, 300*time.Millisecond, 20*time.Millisecond)
}
