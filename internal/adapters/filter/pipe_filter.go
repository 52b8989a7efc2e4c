package filter

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// maxLineBytes bounds a single input line; longer lines end the stream.
	maxLineBytes = 1 << 20
)

// PipeFilter implements a line-oriented streaming filter: one content item
// per input line, one JSON verdict per output line.
type PipeFilter struct {
	service *core.AnalysisService
	logger  *zap.Logger
	in      io.Reader
	out     io.Writer
	timeout time.Duration
	cancel  context.CancelFunc
}

// NewPipeFilter creates a new pipe filter reading from in and writing to
// out. The timeout bounds the analysis of a single line.
func NewPipeFilter(service *core.AnalysisService, logger *zap.Logger, in io.Reader, out io.Writer, timeout time.Duration) *PipeFilter {
	return &PipeFilter{
		service: service,
		logger:  logger,
		in:      in,
		out:     out,
		timeout: timeout,
	}
}

// Start begins consuming the input stream in a goroutine.
func (f *PipeFilter) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	f.logger.Info("Pipe filter starting")
	go f.run(ctx)

	return nil
}

// Stop signals the stream loop to end. A read blocked on input ends when
// the input itself closes.
func (f *PipeFilter) Stop() error {
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}

func (f *PipeFilter) run(ctx context.Context) {
	scanner := bufio.NewScanner(f.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	encoder := json.NewEncoder(f.out)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		lineCtx, cancelLine := context.WithTimeout(ctx, f.timeout)
		verdict, err := f.service.Analyze(lineCtx, line)
		cancelLine()
		if err != nil {
			f.logger.Error("Failed to analyze line", zap.Error(err))
			continue
		}

		if err := encoder.Encode(verdict); err != nil {
			f.logger.Error("Failed to write verdict", zap.Error(err))
			return
		}
	}

	if err := scanner.Err(); err != nil {
		f.logger.Error("Input stream error", zap.Error(err))
		return
	}
	f.logger.Info("Input stream closed")
}
