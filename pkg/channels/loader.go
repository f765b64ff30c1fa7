package channels

import (
	"log/slog"

	"muse/pkg/api"
	"muse/pkg/config"

	jsoniter "github.com/json-iterator/go"
)

// LoadFromConfig acts as the central orchestration point for dynamic channel
// initialization. It iterates through the provided configuration map,
// resolves factories, and returns the successfully built channels.
func LoadFromConfig(configs map[string]jsoniter.RawMessage, system *config.SystemConfig) []api.Channel {
	var built []api.Channel

	for name, rawConfig := range configs {
		factory, ok := GetChannelFactory(name)
		if !ok {
			slog.Warn("Unknown channel type", "name", name)
			continue
		}

		channel, err := factory.Create(rawConfig, system)
		if err != nil {
			slog.Error("Failed to create channel", "name", name, "error", err)
			continue
		}

		// If Create returns nil (conditions not met but not an error), skip
		if channel == nil {
			continue
		}

		built = append(built, channel)
		slog.Info("Channel created", "name", name)
	}

	return built
}
