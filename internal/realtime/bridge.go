package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/techflow-ai/voiceagent/internal/observability"
	"github.com/techflow-ai/voiceagent/internal/protocol"
	"github.com/techflow-ai/voiceagent/internal/session"
)

// Dispatcher executes tool invocations requested by the model. Invoke is
// total and returns the JSON-encoded tool result.
type Dispatcher interface {
	Invoke(ctx context.Context, name string, args map[string]any) string
}

// Bridge relays protocol events between one client and one upstream
// voice-model connection, intercepting tool-call events along the way.
type Bridge struct {
	connector  Connector
	dispatcher Dispatcher
	metrics    *observability.Metrics
}

func NewBridge(connector Connector, dispatcher Dispatcher, metrics *observability.Metrics) *Bridge {
	return &Bridge{connector: connector, dispatcher: dispatcher, metrics: metrics}
}

// Run drives one session end to end: it connects and configures the
// upstream leg, then runs both relay directions concurrently until either
// side closes or errors. It does not return until both relay loops have
// exited. inbound carries raw client frames; outbound receives events for
// the client writer.
func (b *Bridge) Run(ctx context.Context, sess *session.Session, agent AgentConfig, inbound <-chan []byte, outbound chan<- any) error {
	upstream, err := b.connector.Connect(ctx, agent)
	if err != nil {
		b.observeUpstreamError("connect")
		b.emit(ctx, outbound, protocol.NewErrorEvent(err.Error()))
		return fmt.Errorf("session %s: %w", sess.ID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closing the socket is the sole cancellation mechanism for the
	// upstream read loop.
	go func() {
		<-runCtx.Done()
		_ = upstream.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.relayClientToUpstream(runCtx, cancel, sess, upstream, inbound)
	}()

	relayErr := b.relayUpstreamToClient(runCtx, sess, upstream, outbound)

	cancel()
	_ = upstream.Close()
	wg.Wait()
	return relayErr
}

// relayClientToUpstream translates each inbound client message to its
// upstream wire shape. A malformed frame terminates this relay direction
// without tearing down the upstream-to-client direction.
func (b *Bridge) relayClientToUpstream(ctx context.Context, cancel context.CancelFunc, sess *session.Session, upstream UpstreamConn, inbound <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-inbound:
			if !ok {
				// Client disconnected: signal session teardown.
				cancel()
				return
			}
			msg, err := protocol.ParseClientMessage(raw)
			if err != nil {
				log.Printf("session %s: dropping client relay: %v", sess.ID, err)
				return
			}
			b.observeMessage("inbound", string(msg.Type))
			if err := forwardClientMessage(upstream, msg); err != nil {
				log.Printf("session %s: upstream write failed: %v", sess.ID, err)
				cancel()
				return
			}
		}
	}
}

func forwardClientMessage(upstream UpstreamConn, msg protocol.ClientMessage) error {
	switch msg.Type {
	case protocol.TypeAudio:
		return upstream.WriteJSON(audioBufferAppend{Type: eventInputAudioBufferAppend, Audio: msg.Audio})
	case protocol.TypeAudioCommit:
		return upstream.WriteJSON(typeOnly{Type: eventInputAudioBufferCommit})
	case protocol.TypeText:
		item := conversationItemCreate{
			Type: eventConversationItemCreate,
			Item: conversationItem{
				Type:    "message",
				Role:    "user",
				Content: []itemContent{{Type: "input_text", Text: msg.Text}},
			},
		}
		if err := upstream.WriteJSON(item); err != nil {
			return err
		}
		return upstream.WriteJSON(typeOnly{Type: eventResponseCreate})
	case protocol.TypeCancel:
		return upstream.WriteJSON(typeOnly{Type: eventResponseCancel})
	default:
		// Pass unrecognized types through verbatim for forward
		// compatibility with upstream message shapes.
		return upstream.WriteJSON(msg.Raw)
	}
}

// relayUpstreamToClient forwards allow-listed upstream events to the client
// and intercepts tool-call completion events. Tool invocations within one
// session are serialized: the result injection for a call id is sent
// upstream before the next-turn request for that call, and before any later
// upstream event is read.
func (b *Bridge) relayUpstreamToClient(ctx context.Context, sess *session.Session, upstream UpstreamConn, outbound chan<- any) error {
	for {
		data, err := upstream.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				// Orderly teardown, not an upstream failure.
				return nil
			}
			b.observeUpstreamError("read")
			b.emit(ctx, outbound, protocol.NewErrorEvent("upstream connection lost"))
			return fmt.Errorf("session %s: upstream read: %w", sess.ID, err)
		}

		var env upstreamEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			b.observeUpstreamError("decode")
			b.emit(ctx, outbound, protocol.NewErrorEvent("upstream sent undecodable event"))
			return fmt.Errorf("session %s: upstream decode: %w", sess.ID, err)
		}

		switch {
		case env.Type == eventFunctionCallArgsDone:
			if err := b.handleToolCall(ctx, sess, upstream, env); err != nil {
				b.emit(ctx, outbound, protocol.NewErrorEvent("upstream connection lost"))
				return err
			}
		case clientForwardable[env.Type]:
			b.observeMessage("outbound", env.Type)
			b.emit(ctx, outbound, json.RawMessage(data))
		default:
			// Consumed and discarded: the allow-list is an information
			// hiding boundary, not an oversight.
		}
	}
}

// handleToolCall runs one tool round-trip: dispatch, inject the result as a
// function_call_output item tagged with the same call id, then request the
// next model turn so the conversation continues without client action.
// A tool invocation is never silently dropped; dispatcher failures arrive
// here already wrapped as an error payload.
func (b *Bridge) handleToolCall(ctx context.Context, sess *session.Session, upstream UpstreamConn, env upstreamEnvelope) error {
	var args map[string]any
	var output string
	if env.Arguments != "" && json.Unmarshal([]byte(env.Arguments), &args) != nil {
		// The invocation still yields exactly one result, carrying the
		// failure instead of dropping the call.
		payload, _ := json.Marshal(map[string]string{"error": "invalid tool arguments for " + env.Name})
		output = string(payload)
	} else {
		log.Printf("session %s: tool call %s(%s) call_id=%s", sess.ID, env.Name, env.Arguments, env.CallID)
		output = b.dispatcher.Invoke(ctx, env.Name, args)
	}

	result := conversationItemCreate{
		Type: eventConversationItemCreate,
		Item: conversationItem{
			Type:   "function_call_output",
			CallID: env.CallID,
			Output: output,
		},
	}
	if err := upstream.WriteJSON(result); err != nil {
		return fmt.Errorf("session %s: inject tool result: %w", sess.ID, err)
	}
	if err := upstream.WriteJSON(typeOnly{Type: eventResponseCreate}); err != nil {
		return fmt.Errorf("session %s: request next turn: %w", sess.ID, err)
	}
	return nil
}

func (b *Bridge) emit(ctx context.Context, outbound chan<- any, event any) {
	select {
	case outbound <- event:
	case <-ctx.Done():
	}
}

func (b *Bridge) observeMessage(direction, eventType string) {
	if b.metrics == nil {
		return
	}
	b.metrics.WSMessages.WithLabelValues(direction, eventType).Inc()
}

func (b *Bridge) observeUpstreamError(stage string) {
	if b.metrics == nil {
		return
	}
	b.metrics.UpstreamErrors.WithLabelValues(stage).Inc()
}
