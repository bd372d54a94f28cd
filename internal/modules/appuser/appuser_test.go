package appuser

import (
	"testing"
	"time"

	"github.com/keyward/core/internal/models"
)

func TestHWIDGate(t *testing.T) {
	cases := []struct {
		name        string
		lockEnabled bool
		stored      string
		presented   string
		want        hwidDecision
	}{
		{"lock disabled ignores hwid", false, "HW-A", "HW-B", hwidOK},
		{"lock disabled with empty values", false, "", "", hwidOK},
		{"first login adopts presented hwid", true, "", "HW-A", hwidAdopt},
		{"matching hwid passes", true, "HW-A", "HW-A", hwidOK},
		{"mismatching hwid rejected", true, "HW-A", "HW-B", hwidReject},
		{"missing hwid under lock rejected", true, "HW-A", "", hwidReject},
		{"missing hwid on fresh user rejected", true, "", "", hwidReject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := hwidGate(tc.lockEnabled, tc.stored, tc.presented); got != tc.want {
				t.Fatalf("hwidGate(%v, %q, %q) = %v, want %v",
					tc.lockEnabled, tc.stored, tc.presented, got, tc.want)
			}
		})
	}
}

func TestNewSessionToken(t *testing.T) {
	a, err := newSessionToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := newSessionToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Fatal("two generated tokens are identical")
	}
}

func TestUserContextOf(t *testing.T) {
	u := &models.AppUserModel{
		Username: "neo",
		Email:    "neo@example.com",
		HWID:     "HW-77",
		LastIP:   "203.0.113.9",
	}
	u.ID = "uuid-1"

	uc := userContextOf(u)
	if uc.ID != "uuid-1" || uc.Username != "neo" || uc.Email != "neo@example.com" {
		t.Fatalf("identity fields not carried over: %+v", uc)
	}
	if uc.HWID != "HW-77" || uc.IP != "203.0.113.9" {
		t.Fatalf("device fields not carried over: %+v", uc)
	}
}

func TestToResponseHidesPassword(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	u := &models.AppUserModel{
		AppID:     7,
		Username:  "trinity",
		Password:  "$2a$10$secret",
		ExpiresAt: &exp,
		Banned:    true,
		BanReason: "sharing",
	}
	u.ID = "uuid-2"

	r := toResponse(u)
	if r.ID != "uuid-2" || r.AppID != 7 || r.Username != "trinity" {
		t.Fatalf("unexpected response: %+v", r)
	}
	if !r.Banned || r.BanReason != "sharing" {
		t.Fatalf("ban fields not carried over: %+v", r)
	}
	if r.ExpiresAt == nil || !r.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry not carried over: %+v", r.ExpiresAt)
	}
}
