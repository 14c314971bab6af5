package joke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/integration/common"
	pkghttp "github.com/futig/joke-flows/pkg/http"
)

const jokeEndpoint = "/joke/Any"

var ErrNoJoke = errors.New("joke service returned no joke")

// Connector calls the public joke API
type Connector struct {
	config    config.JokeConfig
	connector *pkghttp.Connector
}

func NewConnector(cfg config.JokeConfig) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig),
		config:    cfg,
	}
}

// GetJoke fetches a joke containing topic. Two part jokes are joined with a newline.
func (c *Connector) GetJoke(ctx context.Context, topic string) (string, error) {
	ctxzap.Info(ctx, "fetching joke", zap.String("topic", topic))

	var resp entity.JokeAPIResponse
	err := c.connector.DoRequest(ctx, http.MethodGet, jokeEndpoint, nil, &resp,
		pkghttp.WithQuery("contains", topic),
	)
	if err != nil {
		return "", fmt.Errorf("get joke failed: %w", err)
	}

	if resp.Error {
		return "", fmt.Errorf("joke service error: %s", resp.Message)
	}

	joke := resp.Joke
	if resp.Setup != "" && resp.Delivery != "" {
		joke = resp.Setup + "\n" + resp.Delivery
	}
	if strings.TrimSpace(joke) == "" {
		return "", ErrNoJoke
	}

	ctxzap.Info(ctx, "joke fetched", zap.String("type", resp.Type), zap.Int("length", len(joke)))

	return joke, nil
}
