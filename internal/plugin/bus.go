package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Bus carries broadcasts between plugins. Topics are static: every
// plugin declares what it publishes and subscribes in its Meta, and
// Register rejects graphs where broadcasts could feed back into their
// own publishers.
type Bus struct {
	log  *zap.Logger
	subs map[string][]subscriber
}

type subscriber struct {
	name string
	l    Listener
}

// NewBus builds an empty bus. Call Register before the first Publish.
func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		log:  log.With(zap.String("component", "bus")),
		subs: make(map[string][]subscriber),
	}
}

// Register wires every plugin's declared subscriptions and validates
// that the publish/subscribe graph is acyclic. A cycle would let one
// event echo between plugins forever, so it aborts startup.
func (b *Bus) Register(plugins []Plugin) error {
	for _, p := range plugins {
		meta := p.Meta()
		if len(meta.Subscribes) == 0 {
			continue
		}
		l, ok := p.(Listener)
		if !ok {
			return fmt.Errorf("plugin %s subscribes to topics but does not implement OnBroadcast", meta.Name)
		}
		for _, topic := range meta.Subscribes {
			b.subs[topic] = append(b.subs[topic], subscriber{name: meta.Name, l: l})
		}
	}
	if cycle := findBroadcastCycle(plugins); cycle != nil {
		return fmt.Errorf("broadcast cycle between plugins: %s", strings.Join(cycle, " -> "))
	}
	return nil
}

// Publish fans payload out to the topic's subscribers concurrently and
// waits for all of them. A failing or panicking subscriber never stops
// the others; failures are logged and joined into the returned error.
// Topics without subscribers are a no-op.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	subs := b.subs[topic]
	if len(subs) == 0 {
		return nil
	}
	errs := make([]error, len(subs))
	var wg sync.WaitGroup
	for i, s := range subs {
		wg.Add(1)
		go func(i int, s subscriber) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					errs[i] = fmt.Errorf("subscriber %s panicked: %v", s.name, rec)
				}
			}()
			if err := s.l.OnBroadcast(ctx, topic, payload); err != nil {
				errs[i] = fmt.Errorf("subscriber %s: %w", s.name, err)
			}
		}(i, s)
	}
	wg.Wait()

	err := errors.Join(errs...)
	if err != nil {
		b.log.Error("broadcast failed",
			zap.String("topic", topic),
			zap.Error(err))
	}
	return err
}

// findBroadcastCycle runs Kahn's algorithm over the publisher ->
// subscriber plugin graph. Nil means acyclic; otherwise the returned
// slice names the plugins along one cycle, closed on itself, for the
// startup diagnostic. A plugin subscribing to its own topic counts as
// a cycle of length one.
func findBroadcastCycle(plugins []Plugin) []string {
	byTopic := make(map[string][]string) // topic -> subscriber plugins
	for _, p := range plugins {
		meta := p.Meta()
		for _, t := range meta.Subscribes {
			byTopic[t] = append(byTopic[t], meta.Name)
		}
	}

	graph := make(map[string][]string) // publisher -> subscribers
	inDegree := make(map[string]int)
	for _, p := range plugins {
		meta := p.Meta()
		if _, ok := inDegree[meta.Name]; !ok {
			inDegree[meta.Name] = 0
		}
		for _, t := range meta.Publishes {
			for _, sub := range byTopic[t] {
				graph[meta.Name] = append(graph[meta.Name], sub)
				inDegree[sub]++
			}
		}
	}

	var queue []string
	for node, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, node)
		}
	}
	processed := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		processed++
		for _, next := range graph[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if processed == len(inDegree) {
		return nil
	}

	// Nodes with remaining in-degree sit on or behind a cycle; walk
	// them to name one concrete loop.
	inCycle := make(map[string]bool)
	for node, deg := range inDegree {
		if deg > 0 {
			inCycle[node] = true
		}
	}
	var nodes []string
	for n := range inCycle {
		nodes = append(nodes, n)
	}

	var dfs func(node string, path []string, seen map[string]bool) []string
	dfs = func(node string, path []string, seen map[string]bool) []string {
		if seen[node] {
			for i, n := range path {
				if n == node {
					return append(path[i:], node)
				}
			}
			return nil
		}
		seen[node] = true
		path = append(path, node)
		for _, next := range graph[node] {
			if !inCycle[next] {
				continue
			}
			if found := dfs(next, path, seen); found != nil {
				return found
			}
		}
		return nil
	}
	for _, start := range nodes {
		if found := dfs(start, nil, make(map[string]bool)); found != nil {
			return found
		}
	}
	return nodes
}
