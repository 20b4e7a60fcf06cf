// Command lambda-http serves the API behind an API Gateway HTTP API.
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http
package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/bootstrap"
	"github.com/suiscode/ai-resume/internal/shared/config"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

const configErrorBody = `{"error":{"code":"config_error","message":"Server configuration error. Please contact support."}}`

type routerFunc func() (*gin.Engine, error)

// proxy builds the router on first use. A failed build is retried on the
// next invocation instead of pinning the warm container to an error.
type proxy struct {
	build   routerFunc
	mu      sync.Mutex
	adapter *ginadapter.GinLambdaV2
}

func (p *proxy) get() (*ginadapter.GinLambdaV2, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.adapter != nil {
		return p.adapter, nil
	}
	router, err := p.build()
	if err != nil {
		return nil, err
	}
	p.adapter = ginadapter.NewV2(router)
	return p.adapter, nil
}

func (p *proxy) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	adapter, err := p.get()
	if err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{
			"error":      err.Error(),
			"request_id": req.RequestContext.RequestID,
		})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       configErrorBody,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	p := &proxy{build: func() (*gin.Engine, error) {
		app, err := bootstrap.Build(config.Load())
		if err != nil {
			return nil, err
		}
		return app.Router, nil
	}}
	lambda.Start(p.handle)
}
