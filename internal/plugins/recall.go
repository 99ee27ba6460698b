// Package plugins bundles the gateway's built-in plugins.
package plugins

import (
	"context"

	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/journal"
	"github.com/onegate/onegate/internal/onebot"
	"github.com/onegate/onegate/internal/plugin"
)

// Recall drops recalled messages from the journal so later queries
// never surface content the upstream has withdrawn.
type Recall struct {
	journal *journal.Journal
	log     *zap.Logger
}

// NewRecall returns the recall sweeper. Its journal handle is bound
// during Setup.
func NewRecall() *Recall { return &Recall{} }

// Meta implements plugin.Plugin.
func (r *Recall) Meta() plugin.Meta {
	return plugin.Meta{
		Name:      "recall",
		Interests: []string{onebot.VariantGroupRecall, onebot.VariantFriendRecall},
		Workers:   5,
		Priority:  1,
	}
}

// Setup implements plugin.Plugin.
func (r *Recall) Setup(pc *plugin.Context) error {
	r.journal = pc.Journal
	r.log = pc.Log
	return nil
}

// Handle deletes the recalled message from the matching conversation.
func (r *Recall) Handle(ctx context.Context, ev onebot.Event) (bool, error) {
	var (
		selfID    int64
		conv      journal.Conversation
		messageID int64
	)
	switch e := ev.(type) {
	case *onebot.GroupRecall:
		selfID, conv, messageID = e.SelfID, journal.GroupConv(e.GroupID), e.MessageID
	case *onebot.FriendRecall:
		selfID, conv, messageID = e.SelfID, journal.PrivateConv(e.UserID), e.MessageID
	default:
		return false, nil
	}
	if err := r.journal.Delete(ctx, selfID, conv, messageID); err != nil {
		return false, err
	}
	r.log.Debug("recalled message removed",
		zap.String("kind", conv.Kind),
		zap.Int64("message_id", messageID),
	)
	return true, nil
}
