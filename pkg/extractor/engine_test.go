package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStrategy scripts one strategy's behavior for chain tests
type fakeStrategy struct {
	name    string
	outputs []string
	errs    []error
	verdict Verdict
	calls   int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	return f.outputs[i], f.errs[i]
}

func (f *fakeStrategy) Classify(err error) Verdict { return f.verdict }

var pdfHeader = []byte("%PDF-1.4\n")

func TestExtractTextRejectsNonPDF(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{name: "empty content", content: []byte{}},
		{name: "nil content", content: nil},
		{name: "plain text", content: []byte("This is not a PDF file")},
		{name: "truncated header", content: []byte("%PD")},
	}

	engine := NewEngineWithStrategies(100, &fakeStrategy{
		name:    "never-called",
		outputs: []string{""},
		errs:    []error{errors.New("should not run")},
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := engine.ExtractText(context.Background(), tt.content)
			require.Error(t, err)
			assert.Empty(t, text)
			assert.True(t, IsInvalidFormat(err), "expected invalid_format, got %v", KindOf(err))
		})
	}
}

func TestExtractTextFirstStrategyWins(t *testing.T) {
	long := make([]byte, 0, 200)
	for i := 0; i < 200; i++ {
		long = append(long, 'a')
	}

	first := &fakeStrategy{name: "first", outputs: []string{string(long)}, errs: []error{nil}}
	second := &fakeStrategy{name: "second", outputs: []string{"unused"}, errs: []error{nil}}

	engine := NewEngineWithStrategies(100, first, second)
	text, err := engine.ExtractText(context.Background(), pdfHeader)

	require.NoError(t, err)
	assert.Equal(t, string(long), text)
	assert.Equal(t, 0, second.calls, "second strategy should not run when the first yields enough text")
}

func TestExtractTextFallsThroughOnFailure(t *testing.T) {
	longText := string(make([]byte, 150))

	failing := &fakeStrategy{
		name:    "failing",
		outputs: []string{""},
		errs:    []error{NewExtractionError(KindParse, "page tree broken")},
		verdict: VerdictFallthrough,
	}
	working := &fakeStrategy{name: "working", outputs: []string{longText}, errs: []error{nil}}

	engine := NewEngineWithStrategies(100, failing, working)
	text, err := engine.ExtractText(context.Background(), pdfHeader)

	require.NoError(t, err)
	assert.Equal(t, longText, text)
	assert.Equal(t, 1, failing.calls)
}

func TestExtractTextAbortsOnPasswordProtection(t *testing.T) {
	protected := &fakeStrategy{
		name:    "text-layer",
		outputs: []string{""},
		errs:    []error{NewExtractionError(KindPasswordProtected, "document is encrypted")},
		verdict: VerdictAbort,
	}
	never := &fakeStrategy{name: "never", outputs: []string{"x"}, errs: []error{nil}}

	engine := NewEngineWithStrategies(100, protected, never)
	_, err := engine.ExtractText(context.Background(), pdfHeader)

	require.Error(t, err)
	assert.True(t, IsPasswordProtected(err))
	assert.Equal(t, 0, never.calls, "chain must stop on abort")
}

func TestExtractTextRetriesTransientErrorOnce(t *testing.T) {
	longText := string(make([]byte, 150))

	flaky := &fakeStrategy{
		name:    "flaky",
		outputs: []string{"", longText},
		errs:    []error{errors.New("unexpected EOF"), nil},
		verdict: VerdictRetry,
	}

	engine := NewEngineWithStrategies(100, flaky)
	engine.RetryDelay = time.Millisecond

	text, err := engine.ExtractText(context.Background(), pdfHeader)
	require.NoError(t, err)
	assert.Equal(t, longText, text)
	assert.Equal(t, 2, flaky.calls)
}

func TestExtractTextReturnsBestInsufficientOutput(t *testing.T) {
	short := &fakeStrategy{name: "short", outputs: []string{"tiny"}, errs: []error{nil}}
	shorter := &fakeStrategy{name: "shorter", outputs: []string{"t"}, errs: []error{nil}}

	engine := NewEngineWithStrategies(100, short, shorter)
	text, err := engine.ExtractText(context.Background(), pdfHeader)

	require.NoError(t, err)
	assert.Equal(t, "tiny", text)
}

func TestExtractTextEmptyDocument(t *testing.T) {
	empty := &fakeStrategy{name: "empty", outputs: []string{""}, errs: []error{nil}}

	engine := NewEngineWithStrategies(100, empty)
	_, err := engine.ExtractText(context.Background(), pdfHeader)

	require.Error(t, err)
	assert.True(t, IsEmptyDocument(err))
}

func TestTextLayerStrategyClassify(t *testing.T) {
	s := &TextLayerStrategy{}

	assert.Equal(t, VerdictAbort, s.Classify(NewExtractionError(KindPasswordProtected, "encrypted")))
	assert.Equal(t, VerdictRetry, s.Classify(errors.New("unexpected EOF")))
	assert.Equal(t, VerdictFallthrough, s.Classify(errors.New("malformed xref table")))
}

func TestExtractionErrorKinds(t *testing.T) {
	err := NewExtractionError(KindInvalidFormat, "bad header %q", "x")
	assert.True(t, IsInvalidFormat(err))
	assert.False(t, IsPasswordProtected(err))
	assert.Contains(t, err.Error(), "bad header")

	assert.Equal(t, ErrorKind(""), KindOf(errors.New("untyped")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}
