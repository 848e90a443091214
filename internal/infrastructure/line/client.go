package line

import (
	"context"
	"errors"
	"fmt"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/pkg/config"
	"todoreminder/internal/pkg/logger"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Client wraps the linebot.Client and delivers reminders as push messages.
type Client struct {
	*linebot.Client
	log logger.Logger
}

// NewClient creates a LINE Bot client from the channel credentials.
func NewClient(cfg config.Line, log logger.Logger, options ...linebot.ClientOption) (*Client, error) {
	if cfg.ChannelSecret == "" || cfg.ChannelToken == "" {
		return nil, errors.New("CHANNEL_SECRET and CHANNEL_ACCESS_TOKEN must be set")
	}

	bot, err := linebot.New(cfg.ChannelSecret, cfg.ChannelToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE Bot client: %w", err)
	}
	log.Info("Successfully created LINE Bot client.")
	return &Client{
		Client: bot,
		log:    log,
	}, nil
}

// Name identifies the transport in logs.
func (c *Client) Name() string {
	return config.TransportLine
}

// PushMessages sends one or more messages using the PushMessage API.
func (c *Client) PushMessages(ctx context.Context, to string, messages ...linebot.SendingMessage) error {
	_, err := c.PushMessage(to, messages...).WithContext(ctx).Do()
	if err != nil {
		return err // Return the error for the caller to handle
	}
	c.log.Debug("Successfully sent push message.")
	return nil
}

// ReplyMessages answers a webhook event using its reply token.
func (c *Client) ReplyMessages(ctx context.Context, replyToken string, messages ...linebot.SendingMessage) error {
	if _, err := c.ReplyMessage(replyToken, messages...).WithContext(ctx).Do(); err != nil {
		return err
	}
	c.log.Debug("Successfully sent reply message.")
	return nil
}

// Send pushes the plain text rendering of msg to the LINE user to.
func (c *Client) Send(ctx context.Context, to string, msg dto.Message) error {
	text := msg.Text
	if text == "" {
		text = msg.Subject
	}
	return c.PushMessages(ctx, to, linebot.NewTextMessage(text))
}
