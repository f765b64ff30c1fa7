package api

// Channel defines the standardized lifecycle interface for publishing
// platforms.
type Channel interface {
	ID() string
	Start(ctx ChannelContext) error
	Stop() error
	// Broadcast pushes a newly published idea to the channel's audience.
	Broadcast(message string) error
	// Send delivers a reply to one specific session (command responses).
	Send(session SessionContext, message string) error
}

// ChannelContext provides the interface for a Channel implementation to
// communicate back with the Gateway core.
type ChannelContext interface {
	CommandResponder
	OnCommand(channelID string, cmd *Command)
}

// CommandResponder defines the capability for answering a command back on
// its originating channel.
type CommandResponder interface {
	SendReply(session SessionContext, content string) error
}

// Command is the standardized internal form of a slash command received on
// any channel.
type Command struct {
	Session SessionContext // Contextual information about the source (User, Chat)
	Name    string         // Command verb without the slash, e.g. "idea"
	Args    string         // Remainder of the command line, may be empty
}

// SessionContext encapsulates identity and routing information for a
// specific conversation unit on a specific communication channel.
type SessionContext struct {
	ChannelID string // Identifier of the channel that originated the session (e.g., "telegram")
	UserID    string // Platform-specific unique identifier for the user
	ChatID    string // Platform-specific identifier for the chat or group (may match UserID for DMs)
	Username  string // Display name or nickname of the user as provided by the platform
}

// CommandHandler defines the function signature for processing incoming
// commands. It implements the CommandProcessor interface.
type CommandHandler func(*Command)

// OnCommand allows CommandHandler to satisfy the CommandProcessor interface.
func (h CommandHandler) OnCommand(cmd *Command) {
	h(cmd)
}

// CommandProcessor defines the interface for components that can process
// incoming commands.
type CommandProcessor interface {
	OnCommand(cmd *Command)
}

// ResponderAware defines an interface for components that require a
// CommandResponder to be injected.
type ResponderAware interface {
	SetResponder(responder CommandResponder)
}
