package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/infrastructure/line"
	"todoreminder/internal/pkg/config"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

const testChannelSecret = "test-secret"

// linkingUsers is a UserService that only knows about LINE links by email.
type linkingUsers struct {
	mu    sync.Mutex
	links map[string]string // email -> LINE user ID
	codes map[string]string // link code -> email
}

func (u *linkingUsers) GetUser(context.Context, uuid.UUID) (*entity.User, error) {
	return nil, appErrors.ErrUserNotFound
}

func (u *linkingUsers) CreateUser(context.Context, dto.CreateUserRequest) (*entity.User, error) {
	return nil, appErrors.ErrInternalServer
}

func (u *linkingUsers) IssueLineLinkCode(context.Context, uuid.UUID) (*dto.LineLinkCodeResponse, error) {
	return nil, appErrors.ErrInternalServer
}

func (u *linkingUsers) LinkLineAccount(_ context.Context, code, lineUserID string) (*entity.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	email, ok := u.codes[code]
	if !ok {
		return nil, appErrors.ErrLinkCodeInvalid
	}
	delete(u.codes, code)
	u.links[email] = lineUserID
	return &entity.User{Email: email, LineUserID: &lineUserID}, nil
}

func (u *linkingUsers) UnlinkLineAccount(_ context.Context, lineUserID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for email, id := range u.links {
		if id == lineUserID {
			u.links[email] = ""
			return nil
		}
	}
	return appErrors.ErrUserNotFound
}

func (u *linkingUsers) EnsureSuperuser(context.Context, string) (*entity.User, error) {
	return nil, appErrors.ErrInternalServer
}

func (u *linkingUsers) linked(email string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.links[email]
}

type replyRecorder struct {
	mu      sync.Mutex
	replies []string
}

func (r *replyRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1]
}

func newLineTestHandler(t *testing.T, users *linkingUsers) (*LineHandler, *replyRecorder) {
	t.Helper()
	rec := &replyRecorder{}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Text string `json:"text"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			rec.mu.Lock()
			for _, m := range body.Messages {
				rec.replies = append(rec.replies, m.Text)
			}
			rec.mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(api.Close)

	client, err := line.NewClient(
		config.Line{ChannelSecret: testChannelSecret, ChannelToken: "token"},
		logger.Nop(),
		linebot.WithEndpointBase(api.URL),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewLineHandler(client, users, logger.Nop()), rec
}

func textEvent(userID, text string) string {
	return fmt.Sprintf(`{"destination":"bot","events":[{"type":"message","replyToken":"reply-token","timestamp":1760443200000,`+
		`"source":{"type":"user","userId":%q},"message":{"type":"text","id":"1","text":%q}}]}`, userID, text)
}

func postWebhook(t *testing.T, h *LineHandler, body string, signed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	if signed {
		mac := hmac.New(sha256.New, []byte(testChannelSecret))
		mac.Write([]byte(body))
		req.Header.Set("X-Line-Signature", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	} else {
		req.Header.Set("X-Line-Signature", "bogus")
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if err := h.HandleWebhook(c); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	return rec
}

func TestLineWebhookRejectsBadSignature(t *testing.T) {
	h, _ := newLineTestHandler(t, &linkingUsers{links: map[string]string{"owner@example.com": ""}, codes: map[string]string{}})
	rec := postWebhook(t, h, textEvent("U1", "unlink"), false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLineWebhookLinkAndUnlink(t *testing.T) {
	users := &linkingUsers{
		links: map[string]string{"owner@example.com": ""},
		codes: map[string]string{"ABCD2345": "owner@example.com"},
	}
	h, replies := newLineTestHandler(t, users)

	if rec := postWebhook(t, h, textEvent("U1", "link ABCD2345"), true); rec.Code != http.StatusOK {
		t.Fatalf("link status = %d", rec.Code)
	}
	if got := users.linked("owner@example.com"); got != "U1" {
		t.Fatalf("linked = %q, want U1", got)
	}
	if !strings.HasPrefix(replies.last(), "Linked.") {
		t.Fatalf("reply = %q", replies.last())
	}

	postWebhook(t, h, textEvent("U1", "unlink"), true)
	if got := users.linked("owner@example.com"); got != "" {
		t.Fatalf("still linked to %q after unlink", got)
	}
	if !strings.HasPrefix(replies.last(), "Unlinked.") {
		t.Fatalf("reply = %q", replies.last())
	}
}

func TestLineWebhookReplies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "email instead of code", text: "link owner@example.com", want: "That link code is invalid or has expired."},
		{name: "unknown code", text: "link ZZZZ7777", want: "That link code is invalid or has expired."},
		{name: "unlink without link", text: "unlink", want: "This LINE account is not linked."},
		{name: "anything else", text: "hello", want: lineUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, replies := newLineTestHandler(t, &linkingUsers{links: map[string]string{"owner@example.com": ""}, codes: map[string]string{}})
			postWebhook(t, h, textEvent("U9", tt.text), true)
			if got := replies.last(); got != tt.want {
				t.Fatalf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}
