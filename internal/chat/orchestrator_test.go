package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"saggio/server/internal/model"
)

type fakeClient struct {
	response string
	err      error
	gotSys   string
	gotMsgs  []model.ChatMessage
}

func (f *fakeClient) Complete(_ context.Context, system string, _ int, messages []model.ChatMessage) (string, error) {
	f.gotSys = system
	f.gotMsgs = messages
	return f.response, f.err
}

type fakeLogStore struct {
	mu      sync.Mutex
	entries []model.ChatLog
	err     error
}

func (f *fakeLogStore) InsertChatLog(_ context.Context, entry model.ChatLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return f.err
}

func (f *fakeLogStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func student() model.Principal {
	return model.Principal{ID: "user-1", Email: "ana@x.edu", Name: "Ana", Role: model.RoleStudent}
}

func userMessage(content string) []model.ChatMessage {
	return []model.ChatMessage{{Role: "user", Content: content}}
}

func TestFallbackStudyKeywords(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	response := o.Respond(context.Background(), student(), userMessage("dame técnicas de estudio"), "")
	if !strings.Contains(response, "Técnicas de Estudio Recomendadas") {
		t.Fatalf("expected study template, got %q", response)
	}
}

func TestFallbackWorkshopKeywords(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	response := o.Respond(context.Background(), student(), userMessage("necesito un taller"), "")
	if !strings.Contains(response, "Taller Práctico") {
		t.Fatalf("expected workshop template, got %q", response)
	}
}

func TestFallbackGenericStudent(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	response := o.Respond(context.Background(), student(), userMessage("hola"), "")
	if !strings.Contains(response, "Como estudiante de Saggio") {
		t.Fatalf("expected generic student template, got %q", response)
	}
}

func TestFallbackProfessorTrends(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	principal := model.Principal{ID: "user-2", Role: model.RoleProfessor}
	response := o.Respond(context.Background(), principal, userMessage("¿cuáles son las tendencias?"), "")
	if !strings.Contains(response, "Temas de Alta Relevancia") {
		t.Fatalf("expected trends template, got %q", response)
	}
}

func TestFallbackAdmin(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	principal := model.Principal{ID: "user-3", Role: model.RoleAdmin}
	response := o.Respond(context.Background(), principal, userMessage("hola"), "")
	if !strings.Contains(response, "Análisis de Gestión Saggio") {
		t.Fatalf("expected admin template, got %q", response)
	}
}

func TestExplicitRoleOverridesPrincipal(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	response := o.Respond(context.Background(), student(), userMessage("hola"), string(model.RoleAdmin))
	if !strings.Contains(response, "Análisis de Gestión Saggio") {
		t.Fatalf("expected admin template, got %q", response)
	}
}

func TestUnknownRoleDefaultsToStudent(t *testing.T) {
	o := NewOrchestrator(nil, nil)
	response := o.Respond(context.Background(), model.Principal{ID: "user-4", Role: "director"}, userMessage("hola"), "")
	if !strings.Contains(response, "Como estudiante de Saggio") {
		t.Fatalf("expected student template for unknown role, got %q", response)
	}
}

func TestContextWindowing(t *testing.T) {
	client := &fakeClient{response: "ok"}
	o := NewOrchestrator(client, nil)

	messages := []model.ChatMessage{{Role: "system", Content: "ignore me"}}
	for i := 0; i < 15; i++ {
		messages = append(messages, model.ChatMessage{Role: "user", Content: fmt.Sprintf("mensaje %d", i)})
	}

	o.Respond(context.Background(), student(), messages, "")

	if len(client.gotMsgs) != 10 {
		t.Fatalf("expected 10 messages in window, got %d", len(client.gotMsgs))
	}
	if client.gotMsgs[0].Content != "mensaje 5" || client.gotMsgs[9].Content != "mensaje 14" {
		t.Fatalf("expected last 10 messages in order, got first=%q last=%q", client.gotMsgs[0].Content, client.gotMsgs[9].Content)
	}
	for _, message := range client.gotMsgs {
		if message.Role == "system" {
			t.Fatalf("system message leaked into window")
		}
	}
}

func TestPromptSelection(t *testing.T) {
	client := &fakeClient{response: "ok"}
	o := NewOrchestrator(client, nil)
	o.Respond(context.Background(), model.Principal{ID: "user-2", Role: model.RoleProfessor}, userMessage("hola"), "")
	if !strings.Contains(client.gotSys, "PROFESOR") {
		t.Fatalf("expected professor prompt, got %q", client.gotSys)
	}
}

func TestRemoteFailureMaskedByFallback(t *testing.T) {
	client := &fakeClient{err: errors.New("upstream down")}
	logs := &fakeLogStore{}
	o := NewOrchestrator(client, logs)

	response := o.Respond(context.Background(), student(), userMessage("dame un taller"), "")
	if !strings.Contains(response, "Taller Práctico") {
		t.Fatalf("expected fallback after remote failure, got %q", response)
	}
	time.Sleep(50 * time.Millisecond)
	if logs.count() != 0 {
		t.Fatalf("expected no chat log after failed remote call")
	}
}

func TestRemoteSuccessPersistsLog(t *testing.T) {
	client := &fakeClient{response: "respuesta remota"}
	logs := &fakeLogStore{}
	o := NewOrchestrator(client, logs)

	response := o.Respond(context.Background(), student(), userMessage("pregunta"), "")
	if response != "respuesta remota" {
		t.Fatalf("expected remote response, got %q", response)
	}

	deadline := time.Now().Add(time.Second)
	for logs.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if logs.count() != 1 {
		t.Fatalf("expected 1 chat log entry, got %d", logs.count())
	}
	logs.mu.Lock()
	entry := logs.entries[0]
	logs.mu.Unlock()
	if entry.UserID != "user-1" || entry.UserRole != model.RoleStudent || entry.UserMessage != "pregunta" || entry.AIResponse != "respuesta remota" {
		t.Fatalf("unexpected chat log entry: %+v", entry)
	}
}

func TestPersistFailureDoesNotAffectResponse(t *testing.T) {
	client := &fakeClient{response: "ok"}
	logs := &fakeLogStore{err: errors.New("insert failed")}
	o := NewOrchestrator(client, logs)

	if response := o.Respond(context.Background(), student(), userMessage("pregunta"), ""); response != "ok" {
		t.Fatalf("expected remote response despite persistence failure, got %q", response)
	}
}
