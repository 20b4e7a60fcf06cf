package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/suiscode/ai-resume/internal/shared/server"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

const shutdownTimeout = 15 * time.Second

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, app *App) error {
	srv := &http.Server{
		Addr:              server.Addr(app.Config.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": app.Config.Env, "llm_provider": app.Config.LLMProvider})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	telemetry.Info("server.shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
