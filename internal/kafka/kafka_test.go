package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestTopicsReady(t *testing.T) {
	require.True(t, topicsReady(map[string]error{"renders": nil}))
	require.True(t, topicsReady(map[string]error{"renders": kafkago.TopicAlreadyExists}))
	require.False(t, topicsReady(map[string]error{"renders": nil, "other": errors.New("no leader")}))
}

func TestWaitKafkaReady_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// порт 1 закрыт, ждем отмены по контексту
	err := WaitKafkaReady(ctx, "127.0.0.1:1", 10*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
