package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/service"
)

type fakeStream struct {
	args     []*redis.XAddArgs
	err      error
	deadline bool
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	_, f.deadline = ctx.Deadline()
	return redis.NewStringResult("1700000000000-0", f.err)
}

func TestProducer_PublishInteraction(t *testing.T) {
	stream := &fakeStream{}
	p := NewProducer(stream, 0, "", 0)

	rec := entity.NewInteractionRecord("u-9", entity.InteractionQuestionGeneration, "in", time.Now())
	rec.Succeeded = true
	ctx := service.WithSource(context.Background(), "question_paper")
	require.NoError(t, p.PublishInteraction(ctx, rec))

	require.Len(t, stream.args, 1)
	args := stream.args[0]
	assert.Equal(t, string(StreamAIInteractions), args.Stream)
	assert.Equal(t, int64(defaultMaxLen), args.MaxLen)
	assert.True(t, args.Approx)
	assert.True(t, stream.deadline)

	values, ok := args.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "question_generation", values["interaction_type"])
	assert.Equal(t, "true", values["succeeded"])

	evt, payload, err := DecodeInteractionEvent(values)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, evt.RecordID)
	assert.Equal(t, "u-9", evt.UserID)
	assert.Equal(t, eventTypeInteraction, evt.Type)
	assert.Equal(t, "question_paper", evt.Source)
	assert.Equal(t, rec.InputDigest, payload.InputDigest)
}

func TestDecodeInteractionEvent_Rejects(t *testing.T) {
	_, _, err := DecodeInteractionEvent(map[string]any{})
	assert.Error(t, err)

	_, _, err = DecodeInteractionEvent(map[string]any{"data": `{"v":2,"payload":{}}`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported event version")
}

func TestProducer_PublishError(t *testing.T) {
	p := NewProducer(&fakeStream{err: errors.New("READONLY")}, 10, "stream:test", time.Second)
	err := p.PublishInteraction(context.Background(), entity.NewInteractionRecord("", entity.InteractionTutorQuestion, "in", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish message")
}

func TestProducer_NilIsNoop(t *testing.T) {
	var p *Producer
	assert.NoError(t, p.PublishInteraction(context.Background(), &entity.InteractionRecord{}))
}
