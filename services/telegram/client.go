package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bondradar-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// Update is one entry from getUpdates. Only the fields the bot reacts to
// are modeled.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	Chat Chat   `json:"chat"`
	From *User  `json:"from"`
	Text string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	FirstName string `json:"first_name"`
}

type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Client talks to the Telegram Bot API. Transient transport failures are
// retried with exponential backoff before an error ever reaches the bot
// loop; certificate verification stays on.
type Client struct {
	http *resty.Client
}

func NewClient(token string) *Client {
	client := resty.New()
	client.SetBaseURL("https://api.telegram.org/bot" + token)
	client.SetTimeout(time.Second * 10)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Second)
	client.SetRetryMaxWaitTime(time.Second * 8)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() >= http.StatusInternalServerError ||
			res.StatusCode() == http.StatusTooManyRequests
	})

	telemetry.InstrumentResty(client, "telegram/http")

	return &Client{http: client}
}

func (c *Client) invoke(ctx context.Context, method string, payload map[string]any) (json.RawMessage, error) {
	var envelope apiEnvelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		SetError(&envelope)
	if payload != nil {
		req.SetBody(payload)
	}

	res, err := req.Post("/" + method)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	if res.IsError() || !envelope.OK {
		description := envelope.Description
		if description == "" {
			description = res.Status()
		}
		return nil, fmt.Errorf("telegram %s: %s", method, description)
	}

	return envelope.Result, nil
}

// DeleteWebhook clears any webhook registered for the bot so long
// polling doesn't conflict with it.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	_, err := c.invoke(ctx, "deleteWebhook", map[string]any{
		"drop_pending_updates": dropPending,
	})
	return err
}

func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	payload := map[string]any{}
	if offset != 0 {
		payload["offset"] = offset
	}

	result, err := c.invoke(ctx, "getUpdates", payload)
	if err != nil {
		return nil, err
	}

	var updates []Update
	err = json.Unmarshal(result, &updates)
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: decode result: %w", err)
	}
	return updates, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, htmlMarkup bool) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if htmlMarkup {
		payload["parse_mode"] = "HTML"
	}

	_, err := c.invoke(ctx, "sendMessage", payload)
	return err
}
