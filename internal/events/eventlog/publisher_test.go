package eventlog

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishLogsEvent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewPublisher(logger)

	require.NoError(t, p.Publish(context.Background(), "strategy.apy_changed", "mock-strategy", map[string]int{"apy": 7}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "event published", entry.Message)
	assert.Equal(t, "strategy.apy_changed", entry.Data["topic"])
	assert.Equal(t, "mock-strategy", entry.Data["key"])
	assert.JSONEq(t, `{"apy":7}`, entry.Data["payload"].(string))
	assert.Equal(t, "events", entry.Data["component"])
}

func TestPublishUnencodable(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewPublisher(logger)

	err := p.Publish(context.Background(), "t", "k", make(chan int))
	assert.Error(t, err)
	assert.Nil(t, hook.LastEntry())
}
