package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-carousel/pkg/carousel"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	args := m.Called(ctx, channel, message)
	return redis.NewIntResult(1, args.Error(0))
}

func TestPublisher_CarouselChanged(t *testing.T) {
	client := &mockClient{}
	publisher := NewPublisher(client, "")
	event := carousel.ChangeEvent{
		Owner:     carousel.OwnerRef{KindID: 1, ID: 9},
		Operation: "move",
		ChangedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	var published []byte
	client.On("Publish", mock.Anything, DefaultChannel, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).([]byte) }).
		Return(nil).Once()

	require.NoError(t, publisher.CarouselChanged(context.Background(), event))
	client.AssertExpectations(t)

	decoded, err := Decode(string(published))
	require.NoError(t, err)
	assert.Equal(t, event.Owner, decoded.Owner)
	assert.Equal(t, "move", decoded.Operation)
	assert.True(t, event.ChangedAt.Equal(decoded.ChangedAt))
}

func TestPublisher_PublishError(t *testing.T) {
	client := &mockClient{}
	publisher := NewPublisher(client, "shop:carousel")

	client.On("Publish", mock.Anything, "shop:carousel", mock.Anything).Return(errors.New("connection refused"))

	err := publisher.CarouselChanged(context.Background(), carousel.ChangeEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("{not json")
	assert.Error(t, err)
}
