package events

import (
	"encoding/json"
	"testing"
)

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare string", raw: `"abc-123"`, want: "abc-123"},
		{name: "padded string", raw: `"  abc-123  "`, want: "abc-123"},
		{name: "object with _id", raw: `{"_id":"abc-123"}`, want: "abc-123"},
		{name: "object with userId", raw: `{"userId":"abc-123"}`, want: "abc-123"},
		{name: "_id wins over userId", raw: `{"_id":"first","userId":"second"}`, want: "first"},
		{name: "empty object", raw: `{}`, want: ""},
		{name: "absent", raw: ``, want: ""},
		{name: "null", raw: `null`, want: ""},
		{name: "number", raw: `42`, wantErr: true},
		{name: "array", raw: `["abc"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIdentity(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %q", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare string", raw: `"staff"`, want: "staff"},
		{name: "uppercase folded", raw: `"ADMIN"`, want: "admin"},
		{name: "object", raw: `{"role":"staff"}`, want: "staff"},
		{name: "object mixed case", raw: `{"role":"Staff"}`, want: "staff"},
		{name: "empty object", raw: `{}`, want: ""},
		{name: "absent", raw: ``, want: ""},
		{name: "null", raw: `null`, want: ""},
		{name: "number", raw: `1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRole(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %q", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
