package notify

import (
	"strings"
	"testing"

	"github.com/keyward/core/internal/models"
)

func discordDest() *models.WebhookModel {
	return &models.WebhookModel{PayloadURL: "https://discord.com/api/webhooks/123/token"}
}

func TestIsDiscordURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://discord.com/api/webhooks/123/abc", true},
		{"https://discordapp.com/api/webhooks/123/abc", true},
		{"https://canary.discord.com/api/webhooks/123/abc", true},
		{"https://discord.com/channels/123", false},
		{"https://example.com/api/webhooks/123", false},
		{"https://notdiscord.com/api/webhooks/1", false},
		{"://bad url", false},
	}
	for _, tc := range cases {
		if got := isDiscordURL(tc.url); got != tc.want {
			t.Errorf("isDiscordURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestFormatPassThrough(t *testing.T) {
	p := &Payload{Event: EventUserLogin, AppID: 7, Success: true}
	dest := &models.WebhookModel{PayloadURL: "https://example.com/hook"}

	wire, passthrough := formatWireBody(p, dest)
	if !passthrough {
		t.Fatal("non-Discord destination must use pass-through mode")
	}
	if wire != interface{}(p) {
		t.Fatal("pass-through must carry the payload itself")
	}
}

func TestFormatSuccessEmbed(t *testing.T) {
	p := &Payload{
		Event:     EventUserLogin,
		Timestamp: "2026-01-02T15:04:05Z",
		AppID:     42,
		Success:   true,
	}

	wire, passthrough := formatWireBody(p, discordDest())
	if passthrough {
		t.Fatal("Discord destination must not use pass-through mode")
	}
	msg := wire.(*discordMessage)
	if len(msg.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(msg.Embeds))
	}
	e := msg.Embeds[0]

	if e.Color != 0x00FF00 {
		t.Errorf("success color = %#x, want 0x00ff00", e.Color)
	}
	if !strings.Contains(e.Title, "USER LOGIN") {
		t.Errorf("title %q missing uppercased event name", e.Title)
	}
	if e.Timestamp != p.Timestamp {
		t.Errorf("embed timestamp = %q, want payload timestamp %q", e.Timestamp, p.Timestamp)
	}
	if e.Footer.Text != "Application 42" {
		t.Errorf("footer = %q", e.Footer.Text)
	}
	for _, f := range e.Fields {
		if f.Name == "Error Details" {
			t.Error("success embed must not carry an error field")
		}
	}
}

func TestFormatFailureEmbed(t *testing.T) {
	p := &Payload{
		Event:        EventUserLogin,
		AppID:        42,
		Success:      false,
		ErrorMessage: "bad password",
	}

	wire, _ := formatWireBody(p, discordDest())
	e := wire.(*discordMessage).Embeds[0]

	if e.Color != 0xFF0000 {
		t.Errorf("failure color = %#x, want 0xff0000", e.Color)
	}
	var errorFields []embedField
	for _, f := range e.Fields {
		if f.Name == "Error Details" {
			errorFields = append(errorFields, f)
		}
	}
	if len(errorFields) != 1 {
		t.Fatalf("expected exactly one Error Details field, got %d", len(errorFields))
	}
	if errorFields[0].Value != "bad password" {
		t.Errorf("error field = %q, want %q", errorFields[0].Value, "bad password")
	}
}

func TestFormatUserInfoField(t *testing.T) {
	p := &Payload{
		Event:   EventUserLogin,
		AppID:   1,
		Success: true,
		User: &UserContext{
			ID:       "u1",
			Username: "alice",
			Email:    "alice@example.com",
			HWID:     "HW-1",
		},
	}

	wire, _ := formatWireBody(p, discordDest())
	e := wire.(*discordMessage).Embeds[0]

	var userField *embedField
	for i := range e.Fields {
		if e.Fields[i].Name == "User Info" {
			userField = &e.Fields[i]
		}
	}
	if userField == nil {
		t.Fatal("missing User Info field")
	}
	for _, want := range []string{"Username: alice", "Email: alice@example.com", "HWID: HW-1"} {
		if !strings.Contains(userField.Value, want) {
			t.Errorf("user field %q missing %q", userField.Value, want)
		}
	}
	if strings.Contains(userField.Value, "IP:") {
		t.Error("IP line must be omitted when user context has no IP")
	}
}

func TestFormatMetadataField(t *testing.T) {
	p := &Payload{
		Event:   EventUserLogin,
		AppID:   1,
		Success: true,
		Metadata: Metadata{
			"plan":   "pro",
			"count":  3,
			"caught": true,
			"extra":  map[string]interface{}{"k": "v"},
		},
	}

	wire, _ := formatWireBody(p, discordDest())
	e := wire.(*discordMessage).Embeds[0]

	var metaField *embedField
	for i := range e.Fields {
		if e.Fields[i].Name == "Metadata" {
			metaField = &e.Fields[i]
		}
	}
	if metaField == nil {
		t.Fatal("missing Metadata field")
	}
	want := "caught: true\ncount: 3\nextra: {\"k\":\"v\"}\nplan: pro"
	if metaField.Value != want {
		t.Errorf("metadata rendering:\n got %q\nwant %q", metaField.Value, want)
	}
}

func TestEmbedTitleUnknownEvent(t *testing.T) {
	title := embedTitle("totally_unknown_event")
	if !strings.HasPrefix(title, fallbackEmoji) {
		t.Errorf("unknown event title %q must use the fallback emoji", title)
	}
	if !strings.Contains(title, "TOTALLY UNKNOWN EVENT") {
		t.Errorf("title %q missing normalized event name", title)
	}
}
