package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"todoreminder/internal/application/service"
	"todoreminder/internal/infrastructure/line"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

const lineUsage = "Request a link code from your account (POST /api/v1/users/me/line-code), then send \"link <code>\" here to receive todo reminders. Send \"unlink\" to stop."

// LineHandler handles incoming LINE webhook events. It links LINE accounts
// to users so the line transport has somewhere to push reminders.
type LineHandler struct {
	lineClient  *line.Client
	userService service.UserService
	log         logger.Logger
}

// NewLineHandler creates a new LineHandler.
func NewLineHandler(lineClient *line.Client, userService service.UserService, log logger.Logger) *LineHandler {
	return &LineHandler{
		lineClient:  lineClient,
		userService: userService,
		log:         log,
	}
}

// HandleWebhook is the main entry point for webhook requests.
func (h *LineHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := h.lineClient.ParseRequest(c.Request())
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			h.log.Warn("Invalid LINE signature received")
			return c.String(http.StatusBadRequest, "Invalid signature")
		}
		h.log.Error("Failed to parse LINE webhook request", err)
		return c.String(http.StatusInternalServerError, "Error parsing request")
	}

	for _, event := range events {
		h.log.Debug(fmt.Sprintf("Processing event type: %s", event.Type))
		switch event.Type {
		case linebot.EventTypeFollow:
			h.reply(ctx, event.ReplyToken, "Thanks for adding the todo reminder bot. "+lineUsage)
		case linebot.EventTypeUnfollow:
			h.handleUnfollow(ctx, event)
		case linebot.EventTypeMessage:
			h.handleMessage(ctx, event)
		default:
			h.log.Debug(fmt.Sprintf("Unhandled event type: %s", event.Type))
		}
	}

	return c.String(http.StatusOK, "OK")
}

// handleUnfollow drops the link; pushes would fail for a blocked bot anyway.
func (h *LineHandler) handleUnfollow(ctx context.Context, event *linebot.Event) {
	if err := h.userService.UnlinkLineAccount(ctx, event.Source.UserID); err != nil && !errors.Is(err, appErrors.ErrUserNotFound) {
		h.log.Error("Failed to unlink LINE account on unfollow", err)
	}
}

func (h *LineHandler) handleMessage(ctx context.Context, event *linebot.Event) {
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		h.reply(ctx, event.ReplyToken, lineUsage)
		return
	}
	lineUserID := event.Source.UserID
	fields := strings.Fields(message.Text)

	switch {
	case len(fields) == 2 && strings.EqualFold(fields[0], "link"):
		if _, err := h.userService.LinkLineAccount(ctx, fields[1], lineUserID); err != nil {
			if errors.Is(err, appErrors.ErrLinkCodeInvalid) {
				h.reply(ctx, event.ReplyToken, "That link code is invalid or has expired.")
				return
			}
			h.log.Error("Failed to link LINE account", err)
			h.reply(ctx, event.ReplyToken, "Linking failed, please try again later.")
			return
		}
		h.reply(ctx, event.ReplyToken, "Linked. Reminders for your todos will arrive here.")
	case len(fields) == 1 && strings.EqualFold(fields[0], "unlink"):
		if err := h.userService.UnlinkLineAccount(ctx, lineUserID); err != nil {
			if errors.Is(err, appErrors.ErrUserNotFound) {
				h.reply(ctx, event.ReplyToken, "This LINE account is not linked.")
				return
			}
			h.log.Error("Failed to unlink LINE account", err)
			h.reply(ctx, event.ReplyToken, "Unlinking failed, please try again later.")
			return
		}
		h.reply(ctx, event.ReplyToken, "Unlinked. You will no longer get reminders here.")
	default:
		h.reply(ctx, event.ReplyToken, lineUsage)
	}
}

func (h *LineHandler) reply(ctx context.Context, replyToken, text string) {
	if err := h.lineClient.ReplyMessages(ctx, replyToken, linebot.NewTextMessage(text)); err != nil {
		h.log.Error("Failed to send LINE reply", err)
	}
}
