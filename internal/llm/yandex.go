package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"
)

// IAM tokens live for at most 12 hours; a fresh one is issued well before that.
const iamTokenTTL = time.Hour

type YandexClient struct {
	ya yagpt.YaGPTFace

	// issue exchanges the OAuth token for a new IAM token.
	issue func() (string, error)
	now   func() time.Time

	mu       sync.Mutex
	iamToken string
	issuedAt time.Time
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("yandex: init iam: %w", err)
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("yandex: init yagpt: %w", err)
	}
	c := &YandexClient{
		ya: ya,
		issue: func() (string, error) {
			resp, err := iam.Create()
			if err != nil {
				return "", err
			}
			return resp.IamToken, nil
		},
		now: time.Now,
	}
	if _, err := c.token(); err != nil {
		return nil, err
	}
	return c, nil
}

// token returns the cached IAM token, issuing a new one once it is older than iamTokenTTL.
func (c *YandexClient) token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.iamToken != "" && c.now().Sub(c.issuedAt) < iamTokenTTL {
		return c.iamToken, nil
	}
	tok, err := c.issue()
	if err != nil {
		return "", fmt.Errorf("yandex: create iam token: %w", err)
	}
	c.iamToken, c.issuedAt = tok, c.now()
	return tok, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	tok, err := c.token()
	if err != nil {
		return Response{}, err
	}
	yaMsgs := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		yaMsgs = append(yaMsgs, yagpt.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := c.ya.CompletionWithCtx(ctx, tok, yaMsgs)
	if err != nil {
		return Response{}, fmt.Errorf("yandex: completion: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, fmt.Errorf("yandex: empty response")
	}
	return Response{
		Content:          resp.Alternatives[0].Message.Content,
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(resp.Usage.InputTextTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}
