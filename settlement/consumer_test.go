package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sportsbook/apperr"
	"sportsbook/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSettlementService struct {
	mock.Mock
}

func (m *mockSettlementService) SettleWager(ctx context.Context, wagerID string, outcome models.WagerStatus) (*models.Wager, error) {
	args := m.Called(ctx, wagerID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

// fakeReader hands out queued messages, then blocks until the context ends.
// done is closed once every queued message was committed.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	readErrs  []error
	committed []int64
	want      int
	done      chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	for i := range msgs {
		msgs[i].Offset = int64(i)
	}
	return &fakeReader{queue: msgs, want: len(msgs), done: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.readErrs) > 0 {
		err := r.readErrs[0]
		r.readErrs = r.readErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	if len(r.committed) == r.want {
		close(r.done)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func message(value string) kafka.Message {
	return kafka.Message{Value: []byte(value)}
}

func newTestConsumer(reader MessageReader, svc *mockSettlementService) (*Consumer, *[]string) {
	c := NewConsumer(reader, svc)
	c.readBackoff = time.Millisecond
	c.retryBackoff = time.Millisecond

	var mu sync.Mutex
	outcomes := []string{}
	c.OnMessage = func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, outcome)
	}
	return c, &outcomes
}

// runUntilCommitted runs the consumer until every queued message is committed
func runUntilCommitted(t *testing.T, c *Consumer, reader *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	select {
	case <-reader.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for commits")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_SettlesAndCommits(t *testing.T) {
	svc := &mockSettlementService{}
	svc.On("SettleWager", mock.Anything, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", models.WagerStatusWon).
		Return(&models.Wager{ID: "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", Status: models.WagerStatusWon, PotentialPayout: decimal.RequireFromString("77.70")}, nil).Once()
	svc.On("SettleWager", mock.Anything, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e02", models.WagerStatusLost).
		Return(&models.Wager{ID: "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e02", Status: models.WagerStatusLost}, nil).Once()

	reader := newFakeReader(
		message(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01","result":"won"}`),
		message(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e02","result":"lost"}`),
	)
	c, outcomes := newTestConsumer(reader, svc)

	runUntilCommitted(t, c, reader)

	assert.Equal(t, []int64{0, 1}, reader.Committed())
	assert.Equal(t, []string{OutcomeSettled, OutcomeSettled}, *outcomes)
	svc.AssertExpectations(t)
}

func TestConsumer_SkipsResolvedAndUnknownWagers(t *testing.T) {
	svc := &mockSettlementService{}
	svc.On("SettleWager", mock.Anything, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", models.WagerStatusWon).
		Return(nil, apperr.AlreadyResolved("wager", "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01")).Once()
	svc.On("SettleWager", mock.Anything, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e03", models.WagerStatusLost).
		Return(nil, apperr.NotFound("wager", "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e03")).Once()

	reader := newFakeReader(
		message(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01","result":"won"}`),
		message(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e03","result":"lost"}`),
	)
	c, outcomes := newTestConsumer(reader, svc)

	runUntilCommitted(t, c, reader)

	assert.Equal(t, []int64{0, 1}, reader.Committed())
	assert.Equal(t, []string{OutcomeSkipped, OutcomeSkipped}, *outcomes)
	svc.AssertExpectations(t)
}

func TestConsumer_CommitsUndecodableMessages(t *testing.T) {
	svc := &mockSettlementService{}

	reader := newFakeReader(
		message(`not json`),
		message(`{"result":"won"}`),
		message(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01","result":"pending"}`),
		message(`{"wagerId":"abc","result":"won"}`),
	)
	c, outcomes := newTestConsumer(reader, svc)

	runUntilCommitted(t, c, reader)

	assert.Equal(t, []int64{0, 1, 2, 3}, reader.Committed())
	assert.Equal(t, []string{OutcomeInvalid, OutcomeInvalid, OutcomeInvalid, OutcomeInvalid}, *outcomes)
	svc.AssertNotCalled(t, "SettleWager", mock.Anything, mock.Anything, mock.Anything)
}

func TestConsumer_RetriesTransientFailures(t *testing.T) {
	svc := &mockSettlementService{}
	svc.On("SettleWager", mock.Anything, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", models.WagerStatusWon).
		Return(nil, errors.New("connection reset")).Twice()
	svc.On("SettleWager", mock.Anything, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", models.WagerStatusWon).
		Return(&models.Wager{ID: "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", Status: models.WagerStatusWon}, nil).Once()

	reader := newFakeReader(message(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01","result":"won"}`))
	c, outcomes := newTestConsumer(reader, svc)

	runUntilCommitted(t, c, reader)

	assert.Equal(t, []int64{0}, reader.Committed())
	assert.Equal(t, []string{OutcomeRetrying, OutcomeRetrying, OutcomeSettled}, *outcomes)
	svc.AssertNumberOfCalls(t, "SettleWager", 3)
}

func TestConsumer_ContinuesAfterReadError(t *testing.T) {
	svc := &mockSettlementService{}
	svc.On("SettleWager", mock.Anything, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", models.WagerStatusLost).
		Return(&models.Wager{ID: "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", Status: models.WagerStatusLost}, nil).Once()

	reader := newFakeReader(message(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01","result":"lost"}`))
	reader.readErrs = []error{errors.New("broker unavailable")}
	c, _ := newTestConsumer(reader, svc)

	runUntilCommitted(t, c, reader)

	assert.Equal(t, []int64{0}, reader.Committed())
}

func TestConsumer_StopsWhenCancelledDuringRetry(t *testing.T) {
	called := make(chan struct{})
	var once sync.Once
	svc := &mockSettlementService{}
	svc.On("SettleWager", mock.Anything, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", models.WagerStatusWon).
		Return(nil, errors.New("database down")).
		Run(func(mock.Arguments) { once.Do(func() { close(called) }) })

	reader := newFakeReader(message(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01","result":"won"}`))
	c, _ := newTestConsumer(reader, svc)
	c.retryBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("settlement was never attempted")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Empty(t, reader.Committed())
}

func TestDecodeResult(t *testing.T) {
	result, err := decodeResult([]byte(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01","result":"won"}`))
	require.NoError(t, err)
	assert.Equal(t, "3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01", result.WagerID)
	assert.Equal(t, models.WagerStatusWon, result.Result)

	_, err = decodeResult([]byte(`{"wagerId":"3f2b8c1e-6d4a-4c9b-9e7f-1a2b3c4d5e01","result":"draw"}`))
	assert.Error(t, err)

	_, err = decodeResult([]byte(`{"wagerId":"wager-1","result":"won"}`))
	assert.Error(t, err)
}
