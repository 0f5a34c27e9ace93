package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/devvibe-backend/internal/logging"
	"github.com/iliyamo/devvibe-backend/internal/mail"
	"github.com/iliyamo/devvibe-backend/internal/model"
	"github.com/iliyamo/devvibe-backend/internal/observability"
	"github.com/iliyamo/devvibe-backend/internal/repository"
	"github.com/iliyamo/devvibe-backend/internal/service"
)

const testSecret = "service-test-secret-0123"

var testTokens = service.TokenConfig{
	Secret:     testSecret,
	AccessTTL:  time.Hour,
	ResetTTL:   time.Hour,
	BcryptCost: bcrypt.MinCost,
}

// --- fakes ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type fakeCompleter struct {
	answer string
	err    error
	calls  int
	got    string
}

func (c *fakeCompleter) Complete(_ context.Context, q string) (string, error) {
	c.calls++
	c.got = q
	return c.answer, c.err
}

func (c *fakeCompleter) Model() string { return "test-model" }

// brokenStore fails every call with a driver-level error.
type brokenStore struct{}

var errDriver = errors.New("driver: bad connection")

func (brokenStore) Create(context.Context, string, string, string) (model.User, error) {
	return model.User{}, errDriver
}

func (brokenStore) GetByEmail(context.Context, string) (model.User, error) {
	return model.User{}, errDriver
}

func (brokenStore) GetByID(context.Context, uint64) (model.User, error) {
	return model.User{}, errDriver
}

func (brokenStore) UpdatePassword(context.Context, uint64, string, string) error {
	return errDriver
}

// --- fixtures ---

type fixture struct {
	users   *repository.MemoryUserRepo
	mailer  *fakeMailer
	metrics *observability.Metrics
	auth    *service.AuthService
	reset   *service.PasswordResetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := repository.NewMemoryUserRepo()
	mailer := &fakeMailer{}
	metrics := observability.NewMetrics()
	log := logging.Discard()
	return &fixture{
		users:   users,
		mailer:  mailer,
		metrics: metrics,
		auth:    service.NewAuthService(users, testTokens, metrics, log),
		reset:   service.NewPasswordResetService(users, mailer, testTokens, "http://front.test/", "noreply@devvibe.test", metrics, log),
	}
}
