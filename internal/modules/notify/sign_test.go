package notify

import (
	"encoding/json"
	"testing"
)

func TestSignDeterministic(t *testing.T) {
	p := &Payload{Event: EventUserLogin, Timestamp: "2026-01-02T15:04:05Z", AppID: 42, Success: true}
	body, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	first := Sign(body, "topsecret")
	for i := 0; i < 10; i++ {
		if got := Sign(body, "topsecret"); got != first {
			t.Fatalf("signature not stable: %q vs %q", got, first)
		}
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars for sha256, got %d", len(first))
	}
}

func TestSignKnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got := Sign([]byte("what do ya want for nothing?"), "Jefe")
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if got != want {
		t.Fatalf("Sign mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestSignDiffersPerSecret(t *testing.T) {
	body := []byte(`{"event":"user_login"}`)
	if Sign(body, "a") == Sign(body, "b") {
		t.Fatal("signatures for different secrets must differ")
	}
}
