package events

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/sampark/sampark/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabled(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)

	p, err = New(&config.EventsConfig{Enabled: false, NatsURL: "nats://127.0.0.1:1"})
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), SubjectUserDeleted, UserEvent{UserID: 1}))
	assert.NoError(t, p.Close())
}

func TestSubjectPrefix(t *testing.T) {
	assert.Equal(t, "sampark.connection.created", (&NATSPublisher{prefix: "sampark"}).subject(SubjectConnectionCreated))
	assert.Equal(t, "user.deleted", (&NATSPublisher{}).subject(SubjectUserDeleted))
}

func TestPublishWithoutConnection(t *testing.T) {
	p := &NATSPublisher{prefix: "sampark"}
	err := p.Publish(context.Background(), SubjectUserDeleted, UserEvent{UserID: 1})
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
	assert.NoError(t, p.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, SubjectUserDeleted, nil), context.Canceled)
}
