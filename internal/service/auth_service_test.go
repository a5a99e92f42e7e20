package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/receiptsplit/internal/auth"
	"github.com/mmynk/receiptsplit/internal/middleware"
	"github.com/mmynk/receiptsplit/internal/storage/sqlite"
	"github.com/mmynk/receiptsplit/pkg/api"
)

func setupAuthServer(t *testing.T) *api.AuthServiceClient {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	svc := NewAuthService(authenticator, jwtManager, store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	path, handler := api.NewAuthServiceHandler(svc, connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, api.AuthServiceRegisterProcedure, api.AuthServiceLoginProcedure),
	))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return api.NewAuthServiceClient(http.DefaultClient, server.URL)
}

func TestAuth_RegisterLoginAndCurrentUser(t *testing.T) {
	client := setupAuthServer(t)
	ctx := context.Background()

	reg, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "correct horse",
	}))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", reg.Msg.User.Email)
	assert.NotEmpty(t, reg.Msg.Token)

	login, err := client.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct horse",
	}))
	require.NoError(t, err)
	assert.Equal(t, reg.Msg.User.ID, login.Msg.User.ID)

	req := connect.NewRequest(&api.GetCurrentUserRequest{})
	req.Header().Set("Authorization", "Bearer "+login.Msg.Token)
	me, err := client.GetCurrentUser(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Msg.User.DisplayName)
	assert.Equal(t, reg.Msg.User.ID, me.Msg.User.ID)
}

func TestAuth_Errors(t *testing.T) {
	client := setupAuthServer(t)
	ctx := context.Background()

	_, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "long enough",
	}))
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{"duplicate email", func() error {
			_, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
				Email: "BOB@example.com", DisplayName: "Bob", Password: "long enough",
			}))
			return err
		}, connect.CodeAlreadyExists},
		{"weak password", func() error {
			_, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
				Email: "carol@example.com", DisplayName: "Carol", Password: "short",
			}))
			return err
		}, connect.CodeInvalidArgument},
		{"bad email", func() error {
			_, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
				Email: "carol", DisplayName: "Carol", Password: "long enough",
			}))
			return err
		}, connect.CodeInvalidArgument},
		{"missing name", func() error {
			_, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
				Email: "carol@example.com", Password: "long enough",
			}))
			return err
		}, connect.CodeInvalidArgument},
		{"wrong password", func() error {
			_, err := client.Login(ctx, connect.NewRequest(&api.LoginRequest{
				Email: "bob@example.com", Password: "not the one",
			}))
			return err
		}, connect.CodeUnauthenticated},
		{"unknown user", func() error {
			_, err := client.Login(ctx, connect.NewRequest(&api.LoginRequest{
				Email: "nobody@example.com", Password: "long enough",
			}))
			return err
		}, connect.CodeUnauthenticated},
		{"no token", func() error {
			_, err := client.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
			return err
		}, connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}
}
