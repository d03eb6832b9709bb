package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/api"
	"github.com/charlesng35/releasetrack/internal/app"
	sharedtestutil "github.com/charlesng35/releasetrack/internal/database/testutil"
	"github.com/charlesng35/releasetrack/internal/middleware"
	"github.com/charlesng35/releasetrack/internal/models"
	"github.com/charlesng35/releasetrack/pkg/mail"
	"github.com/charlesng35/releasetrack/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	Config *app.Config
	Sender *RecordingSender
}

// EnvOption customises NewEnv.
type EnvOption func(*app.Config)

// WithRateLimit overrides the relay rate limit.
func WithRateLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.RateLimit.Requests = requests
		cfg.RateLimit.Window = window
	}
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
// Outbound email is captured by Env.Sender.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	cfg := &app.Config{
		Server: app.ServerConfig{Port: 8080},
		Email: app.EmailConfig{
			Transport: mail.TransportSMTP,
			From:      "releasetrack@example.com",
			SMTP:      app.SMTPConfig{Host: "smtp.example.com", Port: 587, Password: "test-key"},
		},
		Notifications: app.NotificationConfig{AppURL: "https://releasetrack.test", ExcludeActor: true},
		RateLimit:     app.RateLimitConfig{Requests: 100, Window: time.Minute},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	sender := &RecordingSender{}
	dispatcher, err := app.NewDispatcher(db, sender, cfg.Notifications, nil)
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{
		DB:        db,
		Config:    cfg,
		Sender:    sender,
		Notifier:  dispatcher,
		RateStore: middleware.NewMemoryRateStore(),
	})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		Config: cfg,
		Sender: sender,
	}
}

// CreateUser inserts a user with a unique email and returns the record.
func (e *Env) CreateUser(firstName string) *models.User {
	e.T.Helper()

	user := &models.User{
		FirstName: firstName,
		LastName:  "Tester",
		Email:     firstName + "-" + uuid.NewString()[:8] + "@example.com",
	}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, JSON encoding body and
// sending actorID as the acting user when non-empty.
func (e *Env) Request(method, path string, body any, actorID string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set(middleware.ActorHeader, actorID)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// RecordingSender captures outbound email instead of delivering it.
type RecordingSender struct {
	mu       sync.Mutex
	messages []mail.Message
	// Err, when set, is returned from every Send.
	Err error
}

// Send records msg and returns a receipt for the valid recipients.
func (s *RecordingSender) Send(_ context.Context, msg mail.Message) (mail.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return mail.Receipt{}, s.Err
	}

	valid, rejected := mail.FilterAddresses(msg.To)
	if len(valid) == 0 {
		return mail.Receipt{Rejected: rejected}, mail.ErrNoRecipients
	}
	msg.To = valid
	s.messages = append(s.messages, msg)

	return mail.Receipt{
		ID:        "test-" + uuid.NewString(),
		Transport: s.Transport(),
		Accepted:  valid,
		Rejected:  rejected,
		SentAt:    time.Now().UTC(),
	}, nil
}

// Transport identifies the recording transport.
func (s *RecordingSender) Transport() string { return "recording" }

// Messages returns a copy of every captured message.
func (s *RecordingSender) Messages() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]mail.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
