package webhook

import (
	"reflect"
	"testing"

	"github.com/keyward/core/internal/models"
)

func TestNormalizeEvents(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"valid", []string{"user_login", "user_ban"}, []string{"user_login", "user_ban"}},
		{"uppercase input", []string{"USER_LOGIN"}, []string{"user_login"}},
		{"dedupe", []string{"user_login", "user_login"}, []string{"user_login"}},
		{"unknown dropped", []string{"user_login", "bogus_event"}, []string{"user_login"}},
		{"wildcard wins", []string{"user_login", "ALL"}, []string{"all"}},
		{"blank dropped", []string{"  ", ""}, []string{}},
		{"nil", nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeEvents(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("normalizeEvents(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestToResponseNilEvents(t *testing.T) {
	w := &models.WebhookModel{PayloadURL: "https://example.com"}
	out := toResponse(w)
	if out.Events == nil {
		t.Fatal("events must serialize as an empty array, not null")
	}
}
