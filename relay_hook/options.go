package relayhook

// Option configures a Hook.
type Option func(*Hook)

// PayloadFunc builds a custom event payload for a specific event type.
// The args parameter contains the default payload and the returned value
// becomes event.Event.Data.
type PayloadFunc func(args any) (any, error)

// WithEvents restricts the hook to emit only the listed event types.
// By default all event types are enabled. Unknown types are silently
// ignored.
func WithEvents(events ...string) Option {
	return func(h *Hook) {
		h.enabled = make(map[string]bool, len(events))
		for _, e := range events {
			h.enabled[e] = true
		}
	}
}

// WithPayloadFunc registers a custom payload builder for the given event
// type. The function replaces the default JSON payload for that event.
func WithPayloadFunc(eventType string, fn PayloadFunc) Option {
	return func(h *Hook) {
		if h.payloads == nil {
			h.payloads = make(map[string]PayloadFunc)
		}
		h.payloads[eventType] = fn
	}
}

// WithTenantFunc sets how the tenant ID is derived from a job's execution
// config. By default the config's agent ID is used.
func WithTenantFunc(fn func(agentID string) string) Option {
	return func(h *Hook) { h.tenant = fn }
}
