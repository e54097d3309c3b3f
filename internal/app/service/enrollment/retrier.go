package enrollment

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const retryInterval = time.Minute

// runRetrier starts the background loop that re-drives queued grants.
// "Charged but not granted" is the failure mode that must not linger, so
// the loop runs for the whole process lifetime.
func runRetrier(lc fx.Lifecycle, svc *Service, log *zap.SugaredLogger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(retryInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if n := svc.drainRetries(ctx); n > 0 {
							log.Infow("enrollment_retries_drained", "granted", n)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
