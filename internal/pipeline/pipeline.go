package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/FranksOps/followtrack/internal/change"
	"github.com/FranksOps/followtrack/internal/message"
	"github.com/FranksOps/followtrack/internal/metrics"
	"github.com/FranksOps/followtrack/internal/publish"
	"github.com/FranksOps/followtrack/internal/scraper"
	"github.com/FranksOps/followtrack/internal/storage"
	"github.com/google/uuid"
)

// Acquirer yields the current follower count of a handle.
type Acquirer interface {
	Acquire(ctx context.Context, handle string) (scraper.Result, bool)
}

// History loads and persists the follower history document.
type History interface {
	Load(ctx context.Context) storage.Document
	Save(ctx context.Context, doc storage.Document) error
}

// Pipeline runs one tracking pass per handle: acquire the count, compare it
// with the history, save the new sample and publish the post.
type Pipeline struct {
	Acquirer  Acquirer
	History   History
	Publisher publish.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	// PublishFailureNotice publishes message.FailureNotice when no source
	// produced a count.
	PublishFailureNotice bool
	// Preview, when set, receives each post with its length before it is published.
	Preview io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Outcome is what happened during one Run.
type Outcome struct {
	RunID    string
	Handle   string
	Acquired bool
	Source   string
	Count    int64
	// Change is nil on the first observation of a handle.
	Change     *change.Change
	Text       string
	Receipt    publish.Receipt
	SaveErr    error
	PublishErr error
}

// OK reports whether a count was acquired and the post was published.
// A failed save does not affect it.
func (o Outcome) OK() bool {
	return o.Acquired && o.PublishErr == nil
}

// Run tracks handle once. History is saved whenever a count was acquired,
// whatever the publish outcome.
func (p *Pipeline) Run(ctx context.Context, handle string) Outcome {
	out := Outcome{RunID: uuid.NewString(), Handle: handle}
	logger := p.logger().With("run_id", out.RunID, "handle", handle)

	res, ok := p.Acquirer.Acquire(ctx, handle)
	if !ok {
		logger.Error("could not get follower count")
		if p.PublishFailureNotice {
			out.Text = message.FailureNotice(handle)
			out.Receipt, out.PublishErr = p.publish(ctx, logger, publish.Message{Handle: handle, Text: out.Text})
		}
		return out
	}
	out.Acquired = true
	out.Source = res.Source
	out.Count = res.Count

	now := p.now()
	doc := p.History.Load(ctx)

	if ch, ok := change.Compute(res.Count, doc[handle], now); ok {
		out.Change = &ch
		logger.Info("follower change computed",
			"followers", res.Count,
			"previous", ch.Previous,
			"delta", ch.Delta,
			"elapsed_hours", ch.ElapsedHours,
		)
	} else {
		logger.Info("first observation", "followers", res.Count)
	}

	out.Text = message.Format(message.Input{Handle: handle, Current: res.Count, Change: out.Change})

	storage.Record(doc, handle, storage.Sample{Timestamp: now, FollowersCount: res.Count})
	out.SaveErr = p.History.Save(ctx, doc)

	var delta *int64
	if out.Change != nil {
		delta = &out.Change.Delta
	}
	p.Metrics.RecordFollowers(handle, res.Count, delta)

	out.Receipt, out.PublishErr = p.publish(ctx, logger, publish.Message{
		Handle: handle,
		Text:   out.Text,
		Count:  res.Count,
		Delta:  delta,
	})
	return out
}

// RunAll runs each handle in order and reports whether every run was OK.
func (p *Pipeline) RunAll(ctx context.Context, handles []string) ([]Outcome, bool) {
	outcomes := make([]Outcome, 0, len(handles))
	allOK := true
	for _, h := range handles {
		o := p.Run(ctx, h)
		outcomes = append(outcomes, o)
		allOK = allOK && o.OK()
	}
	return outcomes, allOK
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, m publish.Message) (publish.Receipt, error) {
	logger = logger.With("publisher", p.Publisher.Name(), "length", message.Length(m.Text))

	if p.Preview != nil {
		_, _ = io.WriteString(p.Preview, publish.Preview(m.Text))
	}

	receipt, err := p.Publisher.Publish(ctx, m)
	p.Metrics.RecordPublish(p.Publisher.Name(), err)
	if err != nil {
		logger.Error("failed to publish", "err", err)
		return receipt, err
	}

	if receipt.URL != "" {
		logger.Info("published", "url", receipt.URL)
	} else {
		logger.Info("published")
	}
	return receipt, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
