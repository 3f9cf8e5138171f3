package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/callflow"
	"github.com/GB163/student-led-initiative-sub002/internal/identity"
	"github.com/GB163/student-led-initiative-sub002/internal/messaging"
	"github.com/GB163/student-led-initiative-sub002/internal/presence"
	"github.com/GB163/student-led-initiative-sub002/internal/registry"
	"github.com/GB163/student-led-initiative-sub002/internal/storage"
	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

func newTestRouter(t *testing.T) (*chi.Mux, *callflow.Service, *messaging.Service) {
	t.Helper()
	store := storage.NewMemoryStore()
	updater := presence.NewUpdater(presence.NewNoopStore(), identity.NewUUIDValidator(), presence.NewTracker(), zerolog.Nop())
	calls := callflow.NewService(store, updater, zerolog.Nop())
	messages := messaging.NewService(store, zerolog.Nop())

	handler := NewCallsHandler(calls, messages, zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/api/calls", handler.HandleListOpen)
	r.Get("/api/calls/{callID}", handler.HandleGet)
	r.Get("/api/calls/{callID}/messages", handler.HandleMessages)
	return r, calls, messages
}

func TestHandleListOpen(t *testing.T) {
	r, calls, _ := newTestRouter(t)

	call, err := calls.Submit(context.Background(), callflow.SubmitDetails{Name: "A", OriginConnectionID: "u1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/calls", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Calls []types.CallRequest `json:"calls"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Calls) != 1 || body.Calls[0].ID != call.ID {
		t.Errorf("unexpected calls payload: %+v", body.Calls)
	}
}

func TestHandleGet(t *testing.T) {
	r, calls, _ := newTestRouter(t)

	call, err := calls.Submit(context.Background(), callflow.SubmitDetails{Name: "A", OriginConnectionID: "u1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/calls/"+call.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got types.CallRequest
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != call.ID || got.Status != types.CallStatusPending {
		t.Errorf("unexpected call payload: %+v", got)
	}
}

func TestHandleGetNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calls/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleMessages(t *testing.T) {
	r, calls, messages := newTestRouter(t)
	ctx := context.Background()

	call, err := calls.Submit(ctx, callflow.SubmitDetails{Name: "A", OriginConnectionID: "u1"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	sender := &types.Connection{ID: "u1", Kind: types.KindUser, DisplayName: "Alice"}
	if _, err := messages.PostUserMessage(ctx, sender, "hello", ""); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if _, err := messages.PostStaffMessage(ctx, "u1", "hi", "S"); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/calls/"+call.ID+"/messages", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Messages []types.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(body.Messages))
	}
}

func TestHandleRegistry(t *testing.T) {
	reg := registry.New(zerolog.Nop())
	reg.OnConnect("u1")
	reg.OnConnect("s1")
	reg.RegisterUser("u1", "Alice", "web")
	reg.RegisterRole("s1", types.KindStaff, "staff-1", "desk")

	handler := NewDiagHandler(reg, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/internal/registry", nil)
	rec := httptest.NewRecorder()
	handler.HandleRegistry(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot struct {
		Counts types.RegistryCounts    `json:"counts"`
		Staff  []types.StaffConnection `json:"staff"`
		Users  []types.Connection      `json:"users"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snapshot.Counts.Users != 1 || snapshot.Counts.Staff != 1 {
		t.Errorf("unexpected counts: %+v", snapshot.Counts)
	}
	if len(snapshot.Staff) != 1 || snapshot.Staff[0].Identity != "staff-1" {
		t.Errorf("unexpected staff list: %+v", snapshot.Staff)
	}
	if len(snapshot.Users) != 1 || snapshot.Users[0].DisplayName != "Alice" {
		t.Errorf("unexpected user list: %+v", snapshot.Users)
	}
}
