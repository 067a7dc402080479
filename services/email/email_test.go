package emailsvc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/portal/core"
	logsvc "github.com/trezcool/portal/services/logger"
)

func newLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{Debug: true, TestMode: true})
}

func TestConsoleServiceMock(t *testing.T) {
	ClearSentMessages()
	svc := NewConsoleServiceMock(newLogger())

	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Name: "Jane", Address: "jane@example.com"}}, Subject: "Hi", BodyStr: "Hello"},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "lost"},
	)

	msg, ok := LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "Hi", msg.Subject)
	assert.Equal(t, "Hello", msg.TextContent)
	assert.Len(t, SentMessages, 1)

	err := svc.Send(context.Background(), &core.EmailMessage{To: []mail.Address{{Address: "jane@example.com"}}})
	assert.Equal(t, core.ErrEmailNotSendable, err)
}

func TestConsoleService_format(t *testing.T) {
	svc := consoleService{defaultFromEmail: mail.Address{Name: "Portal", Address: "noreply@localhost"}, subjPrefix: "[Portal] "}
	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Address: "jane@example.com"}},
		Subject:     "Hi",
		TextContent: "Hello",
		HTMLContent: "<p>Hello</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "From: \"Portal\" <noreply@localhost>\r\n")
	assert.Contains(t, body, "Subject: [Portal] Hi\r\n")
	assert.Contains(t, body, "To: <jane@example.com>\r\n")
	assert.Contains(t, body, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, body, "<p>Hello</p>")
}

func TestSendgridService_Send(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "accepted", status: http.StatusAccepted},
		{name: "rejected", status: http.StatusBadRequest, wantErr: ErrDeliveryFailed},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrDeliveryFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var (
				payload map[string]interface{}
				hits    int32
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				assert.Equal(t, endpoint, r.URL.Path)
				assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
				_ = json.NewDecoder(r.Body).Decode(&payload)
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			svc := &sendgridService{
				key:        "key",
				host:       srv.URL,
				from:       sgEmail(mail.Address{Name: "Portal", Address: "noreply@localhost"}),
				subjPrefix: "[Portal] ",
				logger:     newLogger(),
			}
			err := svc.Send(context.Background(), &core.EmailMessage{
				To:      []mail.Address{{Name: "Jane", Address: "jane@example.com"}},
				Subject: "Welcome",
				BodyStr: "Hello Jane",
			})
			if tc.wantErr != nil {
				assert.Equal(t, tc.wantErr, errors.Cause(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "never retried")

			require.NotNil(t, payload)
			personalizations := payload["personalizations"].([]interface{})
			require.Len(t, personalizations, 1)
			assert.Equal(t, "[Portal] Welcome", personalizations[0].(map[string]interface{})["subject"])
			content := payload["content"].([]interface{})
			require.Len(t, content, 1)
			assert.Equal(t, "text/plain", content[0].(map[string]interface{})["type"])
		})
	}
}

func TestSendgridService_SendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	svc := &sendgridService{key: "key", host: srv.URL, from: sgEmail(mail.Address{Address: "noreply@localhost"}), logger: newLogger()}
	err := svc.Send(context.Background(), &core.EmailMessage{To: []mail.Address{{Address: "jane@example.com"}}, Subject: "Hi", BodyStr: "Hello"})
	assert.Equal(t, ErrDeliveryFailed, errors.Cause(err))
}
