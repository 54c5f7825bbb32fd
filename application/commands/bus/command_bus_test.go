package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingCommand struct {
	valid bool
}

func (c pingCommand) Validate() error {
	if !c.valid {
		return errors.New("ping is invalid")
	}
	return nil
}

type otherCommand struct{}

func (otherCommand) Validate() error { return nil }

type recorder struct {
	sent []string
}

func (r *recorder) RequestSent(commandType string, err error) {
	r.sent = append(r.sent, commandType)
}

func TestCommandBus_Send(t *testing.T) {
	rec := &recorder{}
	b := NewCommandBus(LoggingMiddleware(zap.NewNop()), MetricsMiddleware(rec))

	var handled []Command
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		handled = append(handled, cmd)
		return nil
	})))

	require.NoError(t, b.Send(context.Background(), pingCommand{valid: true}))

	assert.Len(t, handled, 1)
	assert.Equal(t, []string{"pingCommand"}, rec.sent)
}

func TestCommandBus_ValidationStopsDispatch(t *testing.T) {
	b := NewCommandBus()
	called := false
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		called = true
		return nil
	})))

	err := b.Send(context.Background(), pingCommand{})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestCommandBus_UnregisteredCommand(t *testing.T) {
	err := NewCommandBus().Send(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestCommandBus_DuplicateRegistration(t *testing.T) {
	b := NewCommandBus()
	h := CommandHandlerFunc(func(ctx context.Context, cmd Command) error { return nil })

	require.NoError(t, b.Register(pingCommand{}, h))
	assert.Error(t, b.Register(pingCommand{}, h))
}

func TestCommandBus_HandlerErrorIsWrapped(t *testing.T) {
	boom := errors.New("socket closed")
	b := NewCommandBus()
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
		return boom
	})))

	err := b.Send(context.Background(), pingCommand{valid: true})

	assert.ErrorIs(t, err, boom)
}
