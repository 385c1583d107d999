package memimg

import (
	"context"
	"fmt"
	"time"

	"github.com/evermem/memimg/domain/event"
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/pkg/eventlog"
	"github.com/evermem/memimg/pkg/metrics"
)

// ReplayTo creates a fresh image over root (an empty object when nil) and
// applies the given events in order. The replayed mutations emit nothing;
// the log in opts stays untouched and receives only mutations made after the replay.
func ReplayTo(root graph.Node, events []*event.Event, opts Options) (*Image, error) {
	im, err := Create(root, opts)
	if err != nil {
		return nil, err
	}
	if err := im.Apply(events); err != nil {
		return im, err
	}
	return im, nil
}

// ReplayFromLog creates a fresh image and reconstructs its state from the
// log in opts, streaming when the backend supports it.
func ReplayFromLog(ctx context.Context, opts Options) (*Image, error) {
	im, err := Create(nil, opts)
	if err != nil {
		return nil, err
	}
	if err := im.ApplyFromLog(ctx); err != nil {
		return im, err
	}
	return im, nil
}

// Apply replays a recorded event sequence onto the image. Events are
// applied strictly in order; the first failing event aborts the replay with
// the state as reached, and discarding it is the caller's decision.
func (im *Image) Apply(events []*event.Event) error {
	return im.replay(func(apply func(*event.Event) error) error {
		for _, ev := range events {
			if err := apply(ev); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyFromLog replays the image's own log onto the image, streaming when
// the backend supports it.
func (im *Image) ApplyFromLog(ctx context.Context) error {
	return im.replay(func(apply func(*event.Event) error) error {
		if streamer, ok := im.log.(eventlog.Streamer); ok {
			return streamer.Stream(ctx, apply)
		}
		events, err := im.log.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := apply(ev); err != nil {
				return err
			}
		}
		return nil
	})
}

// replay runs one event source with re-emission suppressed. Replay is
// single-threaded with respect to the root being reconstructed.
func (im *Image) replay(source func(apply func(*event.Event) error) error) error {
	if im.replaying {
		return fmt.Errorf("image %s is already replaying", im.id)
	}
	start := time.Now()
	applied := 0
	im.replaying = true
	defer func() {
		im.replaying = false
		metrics.RecordReplay(time.Since(start))
		im.logger.ReplayFinished(im.id, applied, time.Since(start))
	}()

	return source(func(ev *event.Event) error {
		if err := event.Apply(ev, im.root, im.registry); err != nil {
			return fmt.Errorf("apply %s at %v: %w", ev.Type, ev.Path, err)
		}
		metrics.RecordReplayEvent(string(ev.Type))
		applied++
		return nil
	})
}
