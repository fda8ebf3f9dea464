package memory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/abreulima/lembra/internal/observability"
)

// contextTimezone is the reference timezone for timestamp markers.
const contextTimezone = "America/Sao_Paulo"

const timestampLayout = "02/01/2006 15:04:05 (MST)"

// DefaultMaxMessages bounds the context window handed to the agent.
const DefaultMaxMessages = 20

// shortenedContextLen is the trailing slice returned when the agent
// looks confused.
const shortenedContextLen = 3

// SessionInfo summarizes a session for diagnostics.
type SessionInfo struct {
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
	MaxMessages  int    `json:"max_messages"`
	TableName    string `json:"table_name"`
}

// HistoryConfig configures a session handle. Zero values fall back to
// the package defaults.
type HistoryConfig struct {
	SessionID        string
	MaxMessages      int
	ConfusionPhrases []string
	Metrics          *observability.Metrics
}

// History exposes a bounded, recency-limited view of one session's
// durable message history. Every message is stored; the agent only
// ever sees the most recent MaxMessages, each annotated with its
// creation time, and an even shorter tail when the recent exchange
// looks like the agent lost the thread.
//
// History holds no session state of its own. Every call re-reads the
// store, so handles are cheap to construct per request and sessions
// are fully independent.
type History struct {
	store       Store
	sessionID   string
	maxMessages int
	phrases     []string
	loc         *time.Location
	metrics     *observability.Metrics
}

func NewHistory(store Store, cfg HistoryConfig) *History {
	maxMessages := cfg.MaxMessages
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	phrases := cfg.ConfusionPhrases
	if len(phrases) == 0 {
		phrases = DefaultConfusionPhrases
	}
	loc, err := time.LoadLocation(contextTimezone)
	if err != nil {
		log.Printf("memory: load timezone %s failed, using UTC: %v", contextTimezone, err)
		loc = time.UTC
	}
	return &History{
		store:       store,
		sessionID:   cfg.SessionID,
		maxMessages: maxMessages,
		phrases:     phrases,
		loc:         loc,
		metrics:     cfg.Metrics,
	}
}

func (h *History) SessionID() string { return h.sessionID }

func (h *History) MaxMessages() int { return h.maxMessages }

// AddMessage durably appends one message. Unlike the read paths,
// append failures propagate: the caller must know when durability is
// lost.
func (h *History) AddMessage(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return err
	}
	if err := h.store.Append(ctx, h.sessionID, payload); err != nil {
		h.countStoreError("append")
		return fmt.Errorf("append message: %w", err)
	}
	if h.metrics != nil {
		role := RoleHuman
		if msg.Role == RoleAI {
			role = RoleAI
		}
		h.metrics.MessagesAppended.WithLabelValues(string(role)).Inc()
	}
	return nil
}

// Clear deletes every stored message for the session. Errors
// propagate for the same reason AddMessage's do.
func (h *History) Clear(ctx context.Context) error {
	if err := h.store.Clear(ctx, h.sessionID); err != nil {
		h.countStoreError("clear")
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MessageCount returns the stored row count. It is advisory: on store
// failure it logs and reports 0 rather than erroring.
func (h *History) MessageCount(ctx context.Context) int {
	n, err := h.store.Count(ctx, h.sessionID)
	if err != nil {
		h.countStoreError("count")
		log.Printf("memory: count for session %s failed: %v", h.sessionID, err)
		return 0
	}
	return n
}

func (h *History) SessionInfo(ctx context.Context) SessionInfo {
	return SessionInfo{
		SessionID:    h.sessionID,
		MessageCount: h.MessageCount(ctx),
		MaxMessages:  h.maxMessages,
		TableName:    h.store.TableName(),
	}
}

// EnforceLimit trims the session to its MaxMessages most recent rows
// and reports how many it deleted. Retention is best-effort
// maintenance and deliberately not wired into AddMessage: callers
// schedule it independently, and the read path applies its own window
// either way. Failures are logged and swallowed. A row appended
// between the read and the delete is simply not considered until the
// next pass.
func (h *History) EnforceLimit(ctx context.Context) int {
	records, err := h.store.ReadAll(ctx, h.sessionID)
	if err != nil {
		h.countStoreError("read_all")
		log.Printf("memory: retention read for session %s failed: %v", h.sessionID, err)
		return 0
	}
	excess := len(records) - h.maxMessages
	if excess <= 0 {
		return 0
	}
	ids := make([]int64, 0, excess)
	for _, r := range records[:excess] {
		ids = append(ids, r.ID)
	}
	if err := h.store.Delete(ctx, h.sessionID, ids); err != nil {
		h.countStoreError("delete")
		log.Printf("memory: retention delete for session %s failed: %v", h.sessionID, err)
		return 0
	}
	if h.metrics != nil {
		h.metrics.RetentionDeleted.Add(float64(excess))
	}
	log.Printf("memory: session %s trimmed: deleted %d oldest messages, keeping %d most recent",
		h.sessionID, excess, h.maxMessages)
	return excess
}

// Context returns the message window for the agent: every stored
// message when the session fits under MaxMessages, otherwise the most
// recent MaxMessages, and only the trailing three of those when the
// recent exchange trips the confusion heuristic. Context never fails;
// when annotation is impossible it degrades to whatever raw history
// it can read.
func (h *History) Context(ctx context.Context) []Message {
	if h.metrics != nil {
		h.metrics.ContextRequests.Inc()
	}

	all := h.annotateAll(ctx)
	window := all
	if len(all) > h.maxMessages {
		window = all[len(all)-h.maxMessages:]
		if detectConfusion(window, h.phrases) {
			log.Printf("memory: confusion detected for session %s, shortening context to last %d messages",
				h.sessionID, shortenedContextLen)
			if h.metrics != nil {
				h.metrics.ContextShortened.Inc()
			}
			window = window[len(window)-shortenedContextLen:]
		}
	}

	if h.metrics != nil {
		h.metrics.ContextSize.Observe(float64(len(window)))
	}
	return window
}

// annotateAll reads the full session history in chronological order
// and rewrites each message's content with its localized creation
// time. Annotation happens only here, on the read path; the stored
// rows are never mutated. Rows that fail to decode are skipped. When
// the store read itself fails, the raw unannotated history is
// returned instead so the agent still gets context.
func (h *History) annotateAll(ctx context.Context) []Message {
	records, err := h.store.ReadAll(ctx, h.sessionID)
	if err != nil {
		h.countStoreError("read_all")
		log.Printf("memory: annotated read for session %s failed, falling back to raw history: %v",
			h.sessionID, err)
		if h.metrics != nil {
			h.metrics.AnnotationFallbacks.Inc()
		}
		return h.rawMessages(ctx)
	}

	out := make([]Message, 0, len(records))
	for _, r := range records {
		msg, err := DecodeMessage(r.Payload)
		if err != nil {
			log.Printf("memory: skipping undecodable row %d in session %s: %v", r.ID, h.sessionID, err)
			continue
		}
		stamp := r.CreatedAt.In(h.loc).Format(timestampLayout)
		msg.Content = fmt.Sprintf("[OLD_MEMORY_CONTEXT: %s] %s", stamp, msg.Content)
		out = append(out, msg)
	}
	return out
}

// rawMessages is the degraded read path: decoded history with no
// timestamp markers. Returns nil when even that is unreachable.
func (h *History) rawMessages(ctx context.Context) []Message {
	records, err := h.store.ReadAll(ctx, h.sessionID)
	if err != nil {
		h.countStoreError("read_all")
		log.Printf("memory: raw read for session %s failed: %v", h.sessionID, err)
		return nil
	}
	out := make([]Message, 0, len(records))
	for _, r := range records {
		msg, err := DecodeMessage(r.Payload)
		if err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func (h *History) countStoreError(op string) {
	if h.metrics != nil {
		h.metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}
