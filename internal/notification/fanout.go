package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Sender delivers one notification to a set of device tokens.
type Sender interface {
	SendPush(ctx context.Context, tokens []DeviceToken, title, body string, data map[string]any) error
}

// Fanout routes each token to the sender registered for its platform.
type Fanout struct {
	senders map[string]Sender
}

func NewFanout() *Fanout {
	return &Fanout{senders: make(map[string]Sender)}
}

func (f *Fanout) Handle(sender Sender, platforms ...string) {
	for _, p := range platforms {
		f.senders[p] = sender
	}
}

// Platforms lists the platforms a sender is registered for.
func (f *Fanout) Platforms() []string {
	out := make([]string, 0, len(f.senders))
	for p := range f.senders {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SendPush fails when any platform group fails or has no sender.
func (f *Fanout) SendPush(ctx context.Context, tokens []DeviceToken, title, body string, data map[string]any) error {
	groups := make(map[string][]DeviceToken)
	var order []string
	for _, t := range tokens {
		if _, ok := groups[t.Platform]; !ok {
			order = append(order, t.Platform)
		}
		groups[t.Platform] = append(groups[t.Platform], t)
	}

	var errs []error
	for _, platform := range order {
		sender, ok := f.senders[platform]
		if !ok {
			errs = append(errs, fmt.Errorf("no sender for platform %q", platform))
			continue
		}
		if err := sender.SendPush(ctx, groups[platform], title, body, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", platform, err))
		}
	}
	return errors.Join(errs...)
}
