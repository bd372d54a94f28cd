package notify

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/keyward/core/internal/models"
)

const (
	colorSuccess = 0x00FF00
	colorFailure = 0xFF0000
)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Timestamp string       `json:"timestamp"`
	Fields    []embedField `json:"fields,omitempty"`
	Footer    embedFooter  `json:"footer"`
}

type discordMessage struct {
	Embeds []embed `json:"embeds"`
}

// isDiscordURL reports whether raw points at a Discord webhook endpoint.
func isDiscordURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "discord.com" && host != "discordapp.com" &&
		!strings.HasSuffix(host, ".discord.com") && !strings.HasSuffix(host, ".discordapp.com") {
		return false
	}
	return strings.HasPrefix(u.Path, "/api/webhooks")
}

// formatWireBody shapes the payload for a destination. Discord endpoints get a
// rich embed; everything else gets the payload as-is (pass-through mode, the
// second return is true). Pure function, no I/O.
func formatWireBody(p *Payload, dest *models.WebhookModel) (interface{}, bool) {
	if !isDiscordURL(dest.PayloadURL) {
		return p, true
	}
	return buildDiscordMessage(p), false
}

func buildDiscordMessage(p *Payload) *discordMessage {
	e := embed{
		Title:     embedTitle(p.Event),
		Color:     colorSuccess,
		Timestamp: p.Timestamp,
		Footer:    embedFooter{Text: fmt.Sprintf("Application %d", p.AppID)},
	}
	if !p.Success {
		e.Color = colorFailure
	}

	if p.User != nil {
		e.Fields = append(e.Fields, embedField{
			Name:  "User Info",
			Value: userInfoValue(p.User),
		})
	}
	if p.ErrorMessage != "" {
		e.Fields = append(e.Fields, embedField{
			Name:  "Error Details",
			Value: p.ErrorMessage,
		})
	}
	if len(p.Metadata) > 0 {
		e.Fields = append(e.Fields, embedField{
			Name:  "Metadata",
			Value: metadataValue(p.Metadata),
		})
	}

	return &discordMessage{Embeds: []embed{e}}
}

// embedTitle builds "<emoji> USER LOGIN" from "user_login". Unknown events get
// the fallback emoji.
func embedTitle(event string) string {
	words := strings.Fields(strings.ReplaceAll(event, "_", " "))
	return emojiFor(event) + " " + strings.ToUpper(strings.Join(words, " "))
}

func userInfoValue(u *UserContext) string {
	lines := []string{"Username: " + u.Username}
	if u.Email != "" {
		lines = append(lines, "Email: "+u.Email)
	}
	if u.IP != "" {
		lines = append(lines, "IP: "+u.IP)
	}
	if u.HWID != "" {
		lines = append(lines, "HWID: "+u.HWID)
	}
	return strings.Join(lines, "\n")
}

// metadataValue renders metadata as "key: value" lines in key order.
func metadataValue(m Metadata) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+renderMetadataValue(m[k]))
	}
	return strings.Join(lines, "\n")
}

func renderMetadataValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
