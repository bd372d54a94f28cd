package notify

import "strings"

// Event vocabulary. Webhook destinations subscribe to these names (or "all").
const (
	EventUserLogin            = "user_login"
	EventUserRegister         = "user_register"
	EventUserUpdate           = "user_update"
	EventUserBan              = "user_ban"
	EventUserUnban            = "user_unban"
	EventUserDelete           = "user_delete"
	EventHWIDReset            = "hwid_reset"
	EventHWIDMismatch         = "hwid_mismatch"
	EventSessionCreated       = "session_created"
	EventSessionKilled        = "session_killed"
	EventBlacklistHit         = "blacklist_hit"
	EventBlacklistAdd         = "blacklist_add"
	EventBlacklistRemove      = "blacklist_remove"
	EventAppPaused            = "app_paused"
	EventAppResumed           = "app_resumed"
	EventSubscriptionExtended = "subscription_extended"
	EventSubscriptionExpired  = "subscription_expired"
	EventAccountLoginFailed   = "account_login_failed"
	EventWebhookTest          = "webhook_test"
)

var eventList = []string{
	EventUserLogin,
	EventUserRegister,
	EventUserUpdate,
	EventUserBan,
	EventUserUnban,
	EventUserDelete,
	EventHWIDReset,
	EventHWIDMismatch,
	EventSessionCreated,
	EventSessionKilled,
	EventBlacklistHit,
	EventBlacklistAdd,
	EventBlacklistRemove,
	EventAppPaused,
	EventAppResumed,
	EventSubscriptionExtended,
	EventSubscriptionExpired,
	EventAccountLoginFailed,
	EventWebhookTest,
}

var eventEmoji = map[string]string{
	EventUserLogin:            "🔑",
	EventUserRegister:         "🆕",
	EventUserUpdate:           "✏️",
	EventUserBan:              "🔨",
	EventUserUnban:            "🕊️",
	EventUserDelete:           "🗑️",
	EventHWIDReset:            "🖥️",
	EventHWIDMismatch:         "🚫",
	EventSessionCreated:       "📡",
	EventSessionKilled:        "✂️",
	EventBlacklistHit:         "🛡️",
	EventBlacklistAdd:         "⛔",
	EventBlacklistRemove:      "✅",
	EventAppPaused:            "⏸️",
	EventAppResumed:           "▶️",
	EventSubscriptionExtended: "⏳",
	EventSubscriptionExpired:  "⌛",
	EventAccountLoginFailed:   "⚠️",
	EventWebhookTest:          "🧪",
}

const fallbackEmoji = "📣"

var knownEvents = func() map[string]struct{} {
	out := make(map[string]struct{}, len(eventList))
	for _, event := range eventList {
		out[event] = struct{}{}
	}
	return out
}()

// Events returns the full event vocabulary.
func Events() []string {
	out := make([]string, len(eventList))
	copy(out, eventList)
	return out
}

// IsKnownEvent reports whether name is part of the vocabulary.
func IsKnownEvent(name string) bool {
	_, ok := knownEvents[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func emojiFor(event string) string {
	if emoji, ok := eventEmoji[event]; ok {
		return emoji
	}
	return fallbackEmoji
}
