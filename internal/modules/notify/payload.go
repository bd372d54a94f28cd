package notify

// Metadata is an open key-value bag attached to a notification. Values are
// restricted to strings, numbers, booleans, and nested maps of the same; the
// formatter renders anything else through its JSON representation.
type Metadata map[string]interface{}

// UserContext identifies the app user an event relates to.
type UserContext struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	HWID      string `json:"hwid,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Payload is the canonical, destination-agnostic notification message. One
// instance is built per triggering event and independently formatted per
// destination; it is never mutated after construction.
type Payload struct {
	Event        string       `json:"event"`
	Timestamp    string       `json:"timestamp"`
	AppID        int64        `json:"app_id"`
	Success      bool         `json:"success"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Metadata     Metadata     `json:"metadata,omitempty"`
	User         *UserContext `json:"user,omitempty"`
}
