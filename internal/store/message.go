package store

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
)

// messageTTL is how long a chat message lives before being purged.
const messageTTL = 24 * time.Hour

// MessageStore wraps the ephemeral household chat. Messages carry an expiry
// a day after sending; expired ones are pruned on session start and on every
// send, and pruning is idempotent so redundant calls are harmless.
type MessageStore struct {
	doc    *crdt.Doc
	logger *slog.Logger
	now    func() time.Time
}

func NewMessageStore(doc *crdt.Doc, logger *slog.Logger) *MessageStore {
	return &MessageStore{doc: doc, logger: orDefault(logger), now: defaultClock}
}

// Snapshot returns the live messages in send order. Messages past their
// expiry are filtered out even before a prune has deleted them.
func (s *MessageStore) Snapshot() []model.Message {
	now := s.now()
	var out []model.Message
	for _, m := range decodeRecords[model.Message](s.doc.List(messagesCollection), s.logger, messagesCollection) {
		if !m.Expired(now) {
			out = append(out, m)
		}
	}
	return out
}

// Subscribe registers fn to run after any message change on any replica.
func (s *MessageStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(messagesCollection, fn)
}

// Send appends a message expiring in a day. imageBase64 may be empty.
// Expired messages are pruned in the same transaction.
func (s *MessageStore) Send(sender, text, imageBase64 string) model.Message {
	now := s.now()
	m := model.Message{
		ID:          uuid.NewString(),
		Sender:      sender,
		Text:        text,
		ImageBase64: imageBase64,
		Timestamp:   now,
		ExpiresAt:   now.Add(messageTTL),
	}
	s.doc.Update(func(tx *crdt.Tx) {
		s.pruneTx(tx, now)
		tx.Append(messagesCollection, m.ID, mustJSON(m))
	})
	return m
}

// PruneExpired deletes every expired message in one transaction.
func (s *MessageStore) PruneExpired() {
	now := s.now()
	s.doc.Update(func(tx *crdt.Tx) {
		s.pruneTx(tx, now)
	})
}

func (s *MessageStore) pruneTx(tx *crdt.Tx, now time.Time) {
	for _, m := range decodeRecords[model.Message](tx.List(messagesCollection), s.logger, messagesCollection) {
		if m.Expired(now) {
			tx.DeleteByID(messagesCollection, m.ID)
		}
	}
}
