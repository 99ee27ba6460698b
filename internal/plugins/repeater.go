package plugins

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/client"
	"github.com/onegate/onegate/internal/config"
	"github.com/onegate/onegate/internal/onebot"
	"github.com/onegate/onegate/internal/plugin"
)

// groupSender is the slice of the action client the repeater needs.
type groupSender interface {
	SendMessage(ctx context.Context, opts client.SendOptions) (int64, error)
}

// streak tracks the run of identical texts in one group.
type streak struct {
	text     string
	count    int
	repeated bool
}

// Repeater chimes in when a watched group repeats itself: the second
// identical text in a row is echoed back, once per streak.
type Repeater struct {
	send   groupSender
	log    *zap.Logger
	groups map[int64]struct{}

	mu   sync.Mutex
	last map[int64]*streak
}

// NewRepeater builds a repeater watching the configured groups.
func NewRepeater(cfg config.RepeaterConfig) *Repeater {
	groups := make(map[int64]struct{}, len(cfg.Groups))
	for _, g := range cfg.Groups {
		groups[g] = struct{}{}
	}
	return &Repeater{
		groups: groups,
		last:   make(map[int64]*streak),
	}
}

// Meta implements plugin.Plugin.
func (r *Repeater) Meta() plugin.Meta {
	return plugin.Meta{
		Name:      "repeater",
		Interests: []string{onebot.VariantGroupMessage},
		Workers:   1,
		Priority:  10,
	}
}

// Setup implements plugin.Plugin.
func (r *Repeater) Setup(pc *plugin.Context) error {
	r.send = pc.Bot
	r.log = pc.Log
	return nil
}

// Handle implements plugin.Plugin. It consumes only the message it
// actually repeats; everything else passes down the chain.
func (r *Repeater) Handle(ctx context.Context, ev onebot.Event) (bool, error) {
	msg, ok := ev.(*onebot.GroupMessage)
	if !ok {
		return false, nil
	}
	if _, watched := r.groups[msg.GroupID]; !watched {
		return false, nil
	}
	if msg.UserID == msg.SelfID {
		return false, nil
	}
	text := plainText(msg.Message)
	if text == "" {
		return false, nil
	}
	if !r.observe(msg.GroupID, text) {
		return false, nil
	}
	if _, err := r.send.SendMessage(ctx, client.SendOptions{GroupID: msg.GroupID, Text: text}); err != nil {
		return false, err
	}
	r.log.Debug("repeated group message", zap.Int64("group_id", msg.GroupID))
	return true, nil
}

// observe advances the group's streak and reports whether this message
// is the second of a fresh run, i.e. the one to repeat.
func (r *Repeater) observe(groupID int64, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.last[groupID]
	if s == nil || s.text != text {
		r.last[groupID] = &streak{text: text, count: 1}
		return false
	}
	s.count++
	if s.count >= 2 && !s.repeated {
		s.repeated = true
		return true
	}
	return false
}

// plainText joins the text segments of a message, ignoring everything
// else.
func plainText(segs []onebot.Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.Type == onebot.TextSegment {
			b.WriteString(seg.Data.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
