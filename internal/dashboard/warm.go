package dashboard

import (
	"context"
	"time"
)

// Warm builds the dashboard once, then again every interval until ctx is
// done, so requests after startup are served from the memo. It returns
// immediately when interval is not positive.
func (p *Pipeline) Warm(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	p.warmOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.warmOnce(ctx)
		}
	}
}

func (p *Pipeline) warmOnce(ctx context.Context) {
	d := p.Build(ctx)
	if d.Blocked {
		p.logger.Warn("cache warm incomplete", "notices", len(d.Notices))
	}
}
