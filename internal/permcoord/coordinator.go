// Package permcoord implements the permission-prompt coordinator: it
// correlates outbound permission.request envelopes with inbound
// permission.response envelopes over an asynchronous transport, with a
// bounded timeout and an audit trail. Responses are matched by message id
// first, falling back to the (correlationId, requestId) pair.
package permcoord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/pkg/types"
)

// Timeout is the bound on every permission wait.
const Timeout = 30 * time.Second

// RuleUpserter is the subset of internal/rules.Store the coordinator needs
// to persist remembered "allow" decisions.
type RuleUpserter interface {
	Upsert(ctx context.Context, rule types.TrustRule) error
}

// Emitter publishes outbound envelopes/events; satisfied by orchestrator.EventEmitter-shaped types.
type Emitter interface {
	Emit(eventType event.EventType, payload any)
}

type pendingEntry struct {
	resolve func(types.Decision)
	cancel  context.CancelFunc
	request types.PermissionRequest
	correlationID string
	profileID     string
}

// Coordinator owns the pending-prompt correlation maps.
type Coordinator struct {
	mu                sync.Mutex
	pending           map[string]*pendingEntry // msgId -> entry
	msgIDByRequestKey map[string]string        // correlationId:requestId -> msgId

	emitter Emitter
	rules   RuleUpserter
	log     zerolog.Logger
	timeout time.Duration
}

// New builds a Coordinator that emits outbound envelopes through emitter and
// persists remembered rules through rules.
func New(emitter Emitter, rules RuleUpserter, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		pending:           make(map[string]*pendingEntry),
		msgIDByRequestKey: make(map[string]string),
		emitter:           emitter,
		rules:             rules,
		log:               log,
		timeout:           Timeout,
	}
}

func requestKey(correlationID, requestID string) string {
	return correlationID + ":" + requestID
}

// WaitForPermission allocates (or reuses) a msgId for req, broadcasts a
// permission.request event, and blocks until a correlated response arrives,
// the 30s timeout fires (resolving to deny), or ctx is cancelled (also
// resolving to deny, without leaving the slot behind — the pending entry is
// removed at once, so a late response or timeout for it is ignored).
func (c *Coordinator) WaitForPermission(ctx context.Context, req types.PermissionRequest, correlationID string) (types.Decision, error) {
	requestID := req.ID
	if requestID == "" {
		requestID = ulid.Make().String()
		req.ID = requestID
	}
	key := requestKey(correlationID, requestID)

	c.mu.Lock()
	msgID, reused := c.msgIDByRequestKey[key]
	if reused {
		if old, ok := c.pending[msgID]; ok {
			old.cancel()
			delete(c.pending, msgID)
		}
	} else {
		msgID = ulid.Make().String()
		c.msgIDByRequestKey[key] = msgID
	}

	resultCh := make(chan types.Decision, 1)
	timerCtx, cancel := context.WithCancel(context.Background())

	entry := &pendingEntry{
		resolve:       func(d types.Decision) { resultCh <- d },
		cancel:        cancel,
		request:       req,
		correlationID: correlationID,
		profileID:     req.ProfileID,
	}
	c.pending[msgID] = entry
	c.mu.Unlock()

	c.emitter.Emit(event.PermissionRequired, event.PermissionRequiredData{
		MsgID:         msgID,
		CorrelationID: correlationID,
		ProfileID:     req.ProfileID,
		Request:       req,
	})
	c.log.Info().Str("msgId", msgID).Str("requestId", requestID).Msg("permission.request")

	go c.runTimeout(timerCtx, msgID)

	select {
	case d := <-resultCh:
		return d, nil
	case <-ctx.Done():
		c.discardOnCancel(msgID, entry)
		return types.DecisionDeny, nil
	}
}

// discardOnCancel short-circuits a wait whose enclosing task was cancelled.
// It still cleans both pending maps, so a late response or
// timeout for the same msgId finds nothing and is safely ignored.
func (c *Coordinator) discardOnCancel(msgID string, entry *pendingEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.pending[msgID]; !ok || current != entry {
		return
	}
	entry.cancel()
	delete(c.pending, msgID)
	delete(c.msgIDByRequestKey, requestKey(entry.correlationID, entry.request.ID))
}

func (c *Coordinator) runTimeout(ctx context.Context, msgID string) {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		c.resolveTimeout(msgID)
	case <-ctx.Done():
	}
}

func (c *Coordinator) resolveTimeout(msgID string) {
	c.mu.Lock()
	entry, ok := c.pending[msgID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.pending, msgID)
	delete(c.msgIDByRequestKey, requestKey(entry.correlationID, entry.request.ID))
	c.mu.Unlock()

	c.log.Warn().Str("msgId", msgID).Msg("permission.timeout")
	entry.resolve(types.DecisionDeny)
}

// Resolve handles an inbound permission.response: decision, correlationID,
// and requestID identify the response; replyTo, if non-empty, is the msgId
// it answers directly. remember persists an "allow" decision as a rule.
func (c *Coordinator) Resolve(ctx context.Context, replyTo, correlationID, requestID string, decision types.Decision, remember bool) {
	normalized := types.DecisionAllow
	if decision == types.DecisionDeny {
		normalized = types.DecisionDeny
	}

	c.mu.Lock()
	msgID := replyTo
	if msgID == "" {
		msgID = c.msgIDByRequestKey[requestKey(correlationID, requestID)]
	}
	entry, ok := c.pending[msgID]
	if !ok {
		c.mu.Unlock()
		c.log.Warn().Str("msgId", msgID).Msg("permission.response: no pending entry, discarding")
		return
	}
	entry.cancel()
	delete(c.pending, msgID)
	delete(c.msgIDByRequestKey, requestKey(entry.correlationID, entry.request.ID))
	c.mu.Unlock()

	if remember && normalized == types.DecisionAllow {
		rule := types.TrustRule{
			ID:       fmt.Sprintf("remembered-%s", ulid.Make().String()),
			Tool:     entry.request.Tool,
			Decision: types.DecisionAllow,
		}
		if entry.request.Scope != "" {
			rule.ScopePrefix = entry.request.Scope
		}
		scope := types.RememberPersistent
		rule.Remember = &scope
		if err := c.rules.Upsert(ctx, rule); err != nil {
			c.log.Error().Err(err).Msg("failed to persist remembered rule")
		} else {
			c.emitter.Emit(event.TrustRuleAdded, event.TrustRuleAddedData{ProfileID: entry.profileID, Rule: rule})
		}
	}

	c.log.Info().Str("msgId", msgID).Str("decision", string(normalized)).Bool("remember", remember).Msg("permission.decision")
	c.emitter.Emit(event.PermissionResolved, event.PermissionResolvedData{
		Decision: types.PermissionDecision{RequestID: entry.request.ID, Decision: normalized},
	})
	entry.resolve(normalized)
}

// Pending returns the number of in-flight permission prompts, for tests and diagnostics.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
