package websocket

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewClientUsesConfiguredTimeouts(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	client := NewClient(hub, nil, 5*time.Second, 2*time.Second, zerolog.Nop())

	if client.pongWait != 5*time.Second {
		t.Errorf("expected configured pong wait 5s, got %s", client.pongWait)
	}
	if client.writeWait != 2*time.Second {
		t.Errorf("expected configured write wait 2s, got %s", client.writeWait)
	}
	// Ping period stays under the pong deadline
	if got := client.pingPeriod(); got != 4500*time.Millisecond {
		t.Errorf("expected ping period 4.5s, got %s", got)
	}
}

func TestNewClientTimeoutDefaults(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	client := NewClient(hub, nil, 0, 0, zerolog.Nop())

	if client.pongWait != defaultPongWait {
		t.Errorf("expected default pong wait %s, got %s", defaultPongWait, client.pongWait)
	}
	if client.writeWait != defaultWriteWait {
		t.Errorf("expected default write wait %s, got %s", defaultWriteWait, client.writeWait)
	}
	if client.pingPeriod() >= client.pongWait {
		t.Error("ping period must stay under the pong deadline")
	}
	if client.ID() == "" {
		t.Error("expected a generated connection id")
	}
}
