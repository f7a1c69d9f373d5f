package sio

const (
	// DefaultKey is the topic prefix used when no key is configured.
	DefaultKey = "socket.io"

	separator     = "#"
	emitterSuffix = "#emitter"
)

// topicPrefix returns the topic every selector chain starts from.
func topicPrefix(key string) string {
	if key == "" {
		return DefaultKey + separator
	}
	return key + emitterSuffix + separator
}
