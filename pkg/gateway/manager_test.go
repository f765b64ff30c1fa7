package gateway

import (
	"errors"
	"testing"

	"muse/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel records interactions for assertions.
type fakeChannel struct {
	id         string
	started    bool
	stopped    bool
	broadcasts []string
	sent       []string
	failBcast  error
}

func (c *fakeChannel) ID() string                         { return c.id }
func (c *fakeChannel) Start(ctx api.ChannelContext) error { c.started = true; return nil }
func (c *fakeChannel) Stop() error                        { c.stopped = true; return nil }

func (c *fakeChannel) Broadcast(message string) error {
	if c.failBcast != nil {
		return c.failBcast
	}
	c.broadcasts = append(c.broadcasts, message)
	return nil
}

func (c *fakeChannel) Send(session api.SessionContext, message string) error {
	c.sent = append(c.sent, message)
	return nil
}

func TestBroadcast(t *testing.T) {
	t.Run("delivers to every channel", func(t *testing.T) {
		gw := NewManager()
		a := &fakeChannel{id: "a"}
		b := &fakeChannel{id: "b"}
		gw.Register(a)
		gw.Register(b)

		require.NoError(t, gw.Broadcast("hello"))
		assert.Equal(t, []string{"hello"}, a.broadcasts)
		assert.Equal(t, []string{"hello"}, b.broadcasts)
	})

	t.Run("one failing channel does not block the others", func(t *testing.T) {
		gw := NewManager()
		bad := &fakeChannel{id: "bad", failBcast: errors.New("boom")}
		good := &fakeChannel{id: "good"}
		gw.Register(bad)
		gw.Register(good)

		err := gw.Broadcast("hello")
		assert.Error(t, err)
		assert.Equal(t, []string{"hello"}, good.broadcasts)
	})

	t.Run("no channels is an error", func(t *testing.T) {
		gw := NewManager()
		assert.Error(t, gw.Broadcast("hello"))
	})
}

func TestStartStopAll(t *testing.T) {
	gw := NewManager()
	a := &fakeChannel{id: "a"}
	gw.Register(a)

	require.NoError(t, gw.StartAll())
	assert.True(t, a.started)

	gw.StopAll()
	assert.True(t, a.stopped)
}

func TestCommandRouting(t *testing.T) {
	gw := NewManager()
	ch := &fakeChannel{id: "telegram"}
	gw.Register(ch)

	var got *Command
	gw.SetCommandHandler(func(cmd *Command) { got = cmd })

	cmd := &Command{
		Name:    "idea",
		Session: SessionContext{ChannelID: "telegram", ChatID: "42", Username: "alice"},
	}
	gw.OnCommand("telegram", cmd)

	require.NotNil(t, got)
	assert.Equal(t, "idea", got.Name)
}

func TestSendReply(t *testing.T) {
	gw := NewManager()
	ch := &fakeChannel{id: "telegram"}
	gw.Register(ch)

	session := SessionContext{ChannelID: "telegram", ChatID: "42"}
	require.NoError(t, gw.SendReply(session, "done"))
	assert.Equal(t, []string{"done"}, ch.sent)

	err := gw.SendReply(SessionContext{ChannelID: "missing"}, "x")
	assert.Error(t, err)
}

func TestBuilderWiresHandler(t *testing.T) {
	ch := &fakeChannel{id: "telegram"}

	var factoryGw *Manager
	gw, err := NewBuilder().
		WithChannel(ch).
		WithHandlerFactory(func(g *Manager) api.CommandProcessor {
			factoryGw = g
			return api.CommandHandler(func(cmd *Command) {})
		}).
		Build()

	require.NoError(t, err)
	assert.Same(t, gw, factoryGw)
	assert.True(t, ch.started)
}
