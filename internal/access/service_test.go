package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
)

const secret = "s3cret"

var validTokens = access.Tokens{Admin: secret, UserProvided: secret}

func callerCtx(p access.Principal) context.Context {
	return access.WithCaller(context.Background(), p)
}

func TestService_Authorize(t *testing.T) {
	type args struct {
		caller access.Principal
		tokens access.Tokens
		secret string
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *access.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:    "Anonymous",
			args:    args{caller: access.Anonymous, tokens: validTokens, secret: secret},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "StoredAdmin",
			args: args{caller: "alice", secret: secret},
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("alice")).Return(access.RoleAdmin, nil)
			},
		},
		{
			name: "BootstrapWithValidTokens",
			args: args{caller: "alice", tokens: validTokens, secret: secret},
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("alice")).Return(access.Role(""), nil)
				m.EXPECT().InitializeAdmin(gomock.Any(), access.Principal("alice")).Return(true, nil)
			},
		},
		{
			name: "ValidTokensAfterInitialization",
			args: args{caller: "mallory", tokens: validTokens, secret: secret},
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("mallory")).Return(access.RoleUser, nil)
				m.EXPECT().InitializeAdmin(gomock.Any(), access.Principal("mallory")).Return(false, nil)
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "WrongUserToken",
			args: args{caller: "bob", tokens: access.Tokens{Admin: secret, UserProvided: "nope"}, secret: secret},
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("bob")).Return(access.RoleUser, nil)
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "EmptySecretDisablesBootstrap",
			args: args{caller: "bob", tokens: access.Tokens{}, secret: ""},
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("bob")).Return(access.Role(""), nil)
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "RepoError",
			args: args{caller: "bob", secret: secret},
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("bob")).Return(access.Role(""), errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := access.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := access.NewService(repo, tt.args.secret)
			err := svc.Authorize(callerCtx(tt.args.caller), tt.args.tokens)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)

			if errors.Is(tt.wantErr, apperr.ErrUnauthorized) {
				assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			}
		})
	}
}

func TestService_CallerRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := access.NewMockRepository(ctrl)
	svc := access.NewService(repo, secret)

	role, err := svc.CallerRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, access.RoleGuest, role)

	repo.EXPECT().GetRole(gomock.Any(), access.Principal("carol")).Return(access.Role(""), nil)
	role, err = svc.CallerRole(callerCtx("carol"))
	require.NoError(t, err)
	assert.Equal(t, access.RoleGuest, role)

	repo.EXPECT().GetRole(gomock.Any(), access.Principal("dave")).Return(access.RoleAdmin, nil)
	isAdmin, err := svc.IsCallerAdmin(callerCtx("dave"))
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestService_SaveCallerProfile(t *testing.T) {
	t.Run("RegistersUserWithoutTokens", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := access.NewMockRepository(ctrl)
		svc := access.NewService(repo, secret)

		gomock.InOrder(
			repo.EXPECT().SaveProfile(gomock.Any(), access.Principal("erin"), access.UserProfile{Name: "Erin"}).Return(nil),
			repo.EXPECT().GetRole(gomock.Any(), access.Principal("erin")).Return(access.Role(""), nil),
			repo.EXPECT().SetRole(gomock.Any(), access.Principal("erin"), access.RoleUser).Return(nil),
		)

		err := svc.SaveCallerProfile(callerCtx("erin"), access.UserProfile{Name: "  Erin "}, access.Tokens{})
		require.NoError(t, err)
	})

	t.Run("BootstrapsAdminWithTokens", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := access.NewMockRepository(ctrl)
		svc := access.NewService(repo, secret)

		repo.EXPECT().SaveProfile(gomock.Any(), access.Principal("frank"), access.UserProfile{Name: "Frank"}).Return(nil)
		repo.EXPECT().GetRole(gomock.Any(), access.Principal("frank")).Return(access.Role(""), nil)
		repo.EXPECT().InitializeAdmin(gomock.Any(), access.Principal("frank")).Return(true, nil)

		err := svc.SaveCallerProfile(callerCtx("frank"), access.UserProfile{Name: "Frank"}, validTokens)
		require.NoError(t, err)
	})

	t.Run("KeepsExistingRole", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := access.NewMockRepository(ctrl)
		svc := access.NewService(repo, secret)

		repo.EXPECT().SaveProfile(gomock.Any(), access.Principal("gina"), access.UserProfile{Name: "Gina"}).Return(nil)
		repo.EXPECT().GetRole(gomock.Any(), access.Principal("gina")).Return(access.RoleGuest, nil)

		err := svc.SaveCallerProfile(callerCtx("gina"), access.UserProfile{Name: "Gina"}, access.Tokens{})
		require.NoError(t, err)
	})

	t.Run("EmptyName", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := access.NewService(access.NewMockRepository(ctrl), secret)

		err := svc.SaveCallerProfile(callerCtx("hank"), access.UserProfile{Name: "   "}, access.Tokens{})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("Anonymous", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := access.NewService(access.NewMockRepository(ctrl), secret)

		err := svc.SaveCallerProfile(context.Background(), access.UserProfile{Name: "Nobody"}, validTokens)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestService_AssignRole(t *testing.T) {
	type testCase struct {
		name      string
		target    access.Principal
		role      access.Role
		setupMock func(m *access.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "AdminAssigns",
			target: "ivy",
			role:   access.RoleUser,
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("root")).Return(access.RoleAdmin, nil)
				m.EXPECT().SetRole(gomock.Any(), access.Principal("ivy"), access.RoleUser).Return(nil)
			},
		},
		{
			name:   "NonAdmin",
			target: "ivy",
			role:   access.RoleAdmin,
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("root")).Return(access.RoleUser, nil)
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name:   "UnknownRole",
			target: "ivy",
			role:   access.Role("owner"),
			setupMock: func(m *access.MockRepository) {
				m.EXPECT().GetRole(gomock.Any(), access.Principal("root")).Return(access.RoleAdmin, nil)
			},
			wantErr: apperr.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := access.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := access.NewService(repo, secret)
			err := svc.AssignRole(callerCtx("root"), tt.target, tt.role)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Profile_Absent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := access.NewMockRepository(ctrl)
	repo.EXPECT().GetProfile(gomock.Any(), access.Principal("jack")).Return(nil, nil)

	svc := access.NewService(repo, secret)

	profile, err := svc.CallerProfile(callerCtx("jack"))
	require.NoError(t, err)
	assert.Nil(t, profile)

	profile, err = svc.Profile(context.Background(), access.Anonymous)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestService_Initialized(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := access.NewMockRepository(ctrl)
	gomock.InOrder(
		repo.EXPECT().GetState(gomock.Any()).Return(nil, nil),
		repo.EXPECT().GetState(gomock.Any()).Return(&access.State{AdminPrincipal: "jack"}, nil),
	)

	svc := access.NewService(repo, secret)

	ok, err := svc.Initialized(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Initialized(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
