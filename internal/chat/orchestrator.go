// Package chat builds role-conditioned AI responses for the platform
// assistant. Each turn tries the remote completion API when one is
// configured and falls back to deterministic canned answers otherwise; the
// turn itself never fails because of the upstream.
package chat

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"saggio/server/internal/model"
)

const (
	// contextWindow bounds the outbound message history.
	contextWindow = 10

	maxOutputTokens = 800

	persistTimeout = 5 * time.Second
)

var (
	remoteTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saggio_chat_remote_turns_total",
		Help: "Chat turns answered by the remote completion API.",
	})
	fallbackTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saggio_chat_fallback_turns_total",
		Help: "Chat turns answered by the local fallback generator.",
	})
)

type CompletionClient interface {
	Complete(ctx context.Context, system string, maxTokens int, messages []model.ChatMessage) (string, error)
}

type LogStore interface {
	InsertChatLog(ctx context.Context, entry model.ChatLog) error
}

type Orchestrator struct {
	client CompletionClient
	logs   LogStore
}

// NewOrchestrator wires the turn pipeline. A nil client disables the remote
// path entirely; a nil log store disables persistence.
func NewOrchestrator(client CompletionClient, logs LogStore) *Orchestrator {
	return &Orchestrator{client: client, logs: logs}
}

// Respond runs one chat turn for the authenticated principal. The effective
// role is the explicit parameter when given, the principal's role otherwise;
// unknown values read as student.
func (o *Orchestrator) Respond(ctx context.Context, principal model.Principal, messages []model.ChatMessage, explicitRole string) string {
	role := principal.Role
	if explicitRole != "" {
		role = model.Role(explicitRole)
	}
	role = model.NormalizeRole(string(role))

	prompt := systemPrompt(role)
	window := windowMessages(messages)
	lastUserMessage := lastUserContent(messages)

	if o.client != nil {
		response, err := o.client.Complete(ctx, prompt, maxOutputTokens, window)
		if err == nil {
			remoteTurns.Inc()
			o.persist(principal.ID, role, lastUserMessage, response)
			return response
		}
		log.Printf("chat completion error: %v", err)
	}

	fallbackTurns.Inc()
	return fallbackResponse(role, lastUserMessage)
}

// windowMessages drops system entries and keeps the most recent messages in
// their original order.
func windowMessages(messages []model.ChatMessage) []model.ChatMessage {
	window := make([]model.ChatMessage, 0, len(messages))
	for _, message := range messages {
		if message.Role == "system" {
			continue
		}
		window = append(window, message)
	}
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}
	return window
}

func lastUserContent(messages []model.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// persist writes the audit record without holding up the response. Failures
// are logged and dropped.
func (o *Orchestrator) persist(userID string, role model.Role, userMessage, response string) {
	if o.logs == nil || userMessage == "" {
		return
	}
	entry := model.ChatLog{
		UserID:      userID,
		UserRole:    role,
		UserMessage: userMessage,
		AIResponse:  response,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := o.logs.InsertChatLog(ctx, entry); err != nil {
			log.Printf("chat log insert error: %v", err)
		}
	}()
}
