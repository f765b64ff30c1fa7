package gateway

import (
	"muse/pkg/api"
)

// Re-export types from the api package via aliases so channel factories can
// depend on gateway alone.
type Channel = api.Channel
type ChannelContext = api.ChannelContext
type CommandResponder = api.CommandResponder
type Command = api.Command
type SessionContext = api.SessionContext

// CommandHandler is the callback type the gateway invokes for every
// incoming command.
type CommandHandler = api.CommandHandler
