package common

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/futig/joke-flows/internal/config"
	pkgHTTP "github.com/futig/joke-flows/pkg/http"
)

const userAgent = "joke-flows/1.0"

func NewBaseConnector(cfg config.HTTPClientConfig) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		BaseURL: cfg.Url,
	}

	return pkgHTTP.NewConnector(
		connCfg,
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
		pkgHTTP.WithUserAgent(userAgent),
	)
}

// NewOpenAIClient builds an OpenAI SDK client on top of the shared HTTP transport.
// The SDK sets its own Authorization header, so no auth transport is added.
func NewOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = pkgHTTP.NewClient(
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithRequestLogging(),
	)

	return openai.NewClientWithConfig(clientCfg)
}
