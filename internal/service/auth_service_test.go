package service_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/devvibe-backend/internal/apperr"
	"github.com/iliyamo/devvibe-backend/internal/logging"
	"github.com/iliyamo/devvibe-backend/internal/model"
	"github.com/iliyamo/devvibe-backend/internal/observability"
	"github.com/iliyamo/devvibe-backend/internal/repository"
	"github.com/iliyamo/devvibe-backend/internal/service"
	"github.com/iliyamo/devvibe-backend/internal/utils"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, service.RegisterInput{Email: " a@x.com ", Password: "p1", Name: "A"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "a@x.com", res.User.Email)
	require.NotNil(t, res.User.Name)
	assert.Equal(t, "A", *res.User.Name)

	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", stored.PasswordHash)
	assert.True(t, utils.VerifyPassword(stored.PasswordHash, "p1"))

	id, err := f.auth.VerifySession(res.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, id)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthEvents.WithLabelValues("register", "success")))
}

func TestRegister_NameOptional(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.Register(context.Background(), service.RegisterInput{Email: "b@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Nil(t, res.User.Name)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		in   service.RegisterInput
	}{
		{"empty email", service.RegisterInput{Password: "p"}},
		{"blank email", service.RegisterInput{Email: "   ", Password: "p"}},
		{"empty password", service.RegisterInput{Email: "a@x.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tc.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeValidation))
			assert.Equal(t, service.MsgCredentialsRequired, err.Error())
		})
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), service.RegisterInput{Email: "a@x.com", Password: strings.Repeat("x", 73)})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Equal(t, service.MsgPasswordTooLong, err.Error())
}

func TestRegister_ColumnLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   service.RegisterInput
		msg  string
	}{
		{"email too long", service.RegisterInput{Email: strings.Repeat("e", model.MaxEmailLen) + "@x.com", Password: "p"}, service.MsgEmailTooLong},
		{"name too long", service.RegisterInput{Email: "a@x.com", Password: "p", Name: strings.Repeat("n", model.MaxNameLen+1)}, service.MsgNameTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeValidation))
			assert.Equal(t, tc.msg, err.Error())
			assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
		})
	}

	// multibyte names are measured in characters
	res, err := f.auth.Register(ctx, service.RegisterInput{Email: "b@x.com", Password: "p", Name: strings.Repeat("é", model.MaxNameLen)})
	require.NoError(t, err)
	require.NotNil(t, res.User.Name)
}

func TestRegister_MySQLDataTooLong(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	auth := service.NewAuthService(repository.NewUserRepo(db), testTokens, observability.NewMetrics(), logging.Discard())

	mock.ExpectQuery("SELECT id,email").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1406, Message: "Data too long for column 'name' at row 1"})

	_, err = auth.Register(context.Background(), service.RegisterInput{Email: "a@x.com", Password: "p", Name: "A"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.Equal(t, service.MsgRegistrationFailed, apperr.Message(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "other"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
	assert.Equal(t, service.MsgUserExists, err.Error())

	// emails are case-sensitive
	_, err = f.auth.Register(ctx, service.RegisterInput{Email: "A@x.com", Password: "p1"})
	assert.NoError(t, err)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Register(context.Background(), service.RegisterInput{Email: "race@x.com", Password: "p"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.Is(err, apperr.CodeConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "p1", Name: "A"})
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, service.LoginInput{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	me, err := f.auth.Me(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User, me)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   service.LoginInput
		code string
		msg  string
	}{
		{"missing password", service.LoginInput{Email: "a@x.com"}, apperr.CodeValidation, service.MsgCredentialsRequired},
		{"missing email", service.LoginInput{Password: "p1"}, apperr.CodeValidation, service.MsgCredentialsRequired},
		{"wrong password", service.LoginInput{Email: "a@x.com", Password: "nope"}, apperr.CodeAuth, service.MsgInvalidCredentials},
		{"unknown email", service.LoginInput{Email: "z@x.com", Password: "p1"}, apperr.CodeAuth, service.MsgInvalidCredentials},
		{"case differs", service.LoginInput{Email: "A@X.COM", Password: "p1"}, apperr.CodeAuth, service.MsgInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Login(ctx, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.code, apperr.Code(err))
			assert.Equal(t, tc.msg, err.Error())
		})
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.AuthEvents.WithLabelValues("login", "failure")))
}

func TestLogin_UnknownEmailStillComparesHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	var hashes []string
	restore := service.SetVerifyPassword(func(hash, plain string) bool {
		hashes = append(hashes, hash)
		return utils.VerifyPassword(hash, plain)
	})
	defer restore()

	_, err = f.auth.Login(ctx, service.LoginInput{Email: "nobody@x.com", Password: "p1"})
	require.Error(t, err)
	_, err = f.auth.Login(ctx, service.LoginInput{Email: "a@x.com", Password: "wrong"})
	require.Error(t, err)

	require.Len(t, hashes, 2)
	for _, h := range hashes {
		cost, err := bcrypt.Cost([]byte(h))
		require.NoError(t, err, "comparison ran against a non-bcrypt hash")
		assert.Equal(t, testTokens.BcryptCost, cost)
	}
}

func TestMe_RejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.users.Create(ctx, "a@x.com", "hash", "")
	require.NoError(t, err)

	expired, err := utils.NewAccessToken(testSecret, u.ID, -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.NewAccessToken("some-other-secret-xyz", u.ID, time.Hour)
	require.NoError(t, err)
	reset, err := utils.NewResetToken(testSecret, u.ID, u.PasswordHash, time.Hour)
	require.NoError(t, err)
	ghost, err := utils.NewAccessToken(testSecret, u.ID+100, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":           "",
		"garbage":         "not-a-jwt",
		"expired":         expired.Token,
		"wrong secret":    foreign.Token,
		"reset token":     reset,
		"deleted account": ghost.Token,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Me(ctx, token)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeAuth))
		})
	}
}

func TestAuthService_StoreFailureIsInternal(t *testing.T) {
	svc := service.NewAuthService(brokenStore{}, testTokens, nil, logging.Discard())

	_, err := svc.Register(context.Background(), service.RegisterInput{Email: "a@x.com", Password: "p"})
	require.Error(t, err)
	assert.Equal(t, "", apperr.Code(err))
	assert.ErrorIs(t, err, errDriver)

	_, err = svc.Login(context.Background(), service.LoginInput{Email: "a@x.com", Password: "p"})
	require.Error(t, err)
	assert.Equal(t, 500, apperr.Status(err))
	assert.Equal(t, "Internal server error", apperr.Message(err))
}
