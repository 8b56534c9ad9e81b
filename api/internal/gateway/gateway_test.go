package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type fakeCaller struct {
	calls   int
	results []fakeResult
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeCaller) generate(ctx context.Context, req Request) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if f.calls >= len(f.results) {
		panic("fakeCaller: more calls than scripted results")
	}
	r := f.results[f.calls]
	f.calls++
	return r.text, r.err
}

func testGateway(c caller, attempts int) *Gateway {
	return &Gateway{
		model: "test-model",
		retry: RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxJitter: time.Millisecond},
		call:  c,
	}
}

func serverErr(code int) error {
	return &googleapi.Error{Code: code, Message: "boom"}
}

func TestInvokeRetriesTransientThenSucceeds(t *testing.T) {
	fake := &fakeCaller{results: []fakeResult{
		{err: serverErr(503)},
		{err: serverErr(500)},
		{text: `{"ok":true}`},
	}}
	g := testGateway(fake, 4)

	res, err := g.Invoke(context.Background(), Request{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, fake.calls)
	assert.JSONEq(t, `{"ok":true}`, string(res.JSON))
}

func TestInvokeExhaustsRetryBudget(t *testing.T) {
	fake := &fakeCaller{results: []fakeResult{
		{err: serverErr(500)},
		{err: serverErr(502)},
		{err: serverErr(503)},
	}}
	g := testGateway(fake, 3)

	_, err := g.Invoke(context.Background(), Request{User: "x"})
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.Transient)
	assert.Equal(t, 3, terr.Attempts)
	assert.Equal(t, 3, fake.calls, "no calls beyond the budget")
}

func TestInvokeFailsFastOnNonTransient(t *testing.T) {
	fake := &fakeCaller{results: []fakeResult{
		{err: serverErr(400)},
	}}
	g := testGateway(fake, 4)

	_, err := g.Invoke(context.Background(), Request{User: "x"})
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.False(t, terr.Transient)
	assert.Equal(t, 400, terr.Status)
	assert.Equal(t, 1, fake.calls)
}

func TestInvokeRepairsBeforeParsing(t *testing.T) {
	fake := &fakeCaller{results: []fakeResult{
		{text: "```json\n{\"q\": \"area \\(x\\)\",}\n```"},
	}}
	g := testGateway(fake, 4)

	res, err := g.Invoke(context.Background(), Request{User: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":"area \\(x\\)"}`, string(res.JSON))
}

func TestInvokeDecodeErrorNotRetried(t *testing.T) {
	fake := &fakeCaller{results: []fakeResult{
		{text: "definitely not json {"},
	}}
	g := testGateway(fake, 4)

	_, err := g.Invoke(context.Background(), Request{User: "x"})
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 1, fake.calls, "content errors do not take the network retry path")
}

func TestInvokeCancellationAbandonsRetries(t *testing.T) {
	fake := &fakeCaller{results: []fakeResult{
		{err: serverErr(500)},
		{text: `{"ok":true}`},
	}}
	g := &Gateway{
		model: "test-model",
		retry: RetryConfig{MaxAttempts: 4, BaseDelay: time.Hour},
		call:  fake,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Invoke(ctx, Request{User: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, fake.calls, "backoff sleep was cancelled before the next attempt")
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		transient bool
	}{
		{serverErr(500), 500, true},
		{serverErr(503), 503, true},
		{serverErr(429), 429, false},
		{serverErr(400), 400, false},
		{errors.New("plain"), 0, false},
	}
	for _, c := range cases {
		status, transient := classify(c.err)
		assert.Equal(t, c.status, status, "%v", c.err)
		assert.Equal(t, c.transient, transient, "%v", c.err)
	}
}
