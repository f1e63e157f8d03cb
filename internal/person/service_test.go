package person_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

var tokens = access.Tokens{Admin: "a", UserProvided: "a"}

func TestService_Create(t *testing.T) {
	type args struct {
		name string
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(repo *person.MockRepository, auth *person.MockAuthorizer)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{name: " Alice "},
			setupMock: func(repo *person.MockRepository, auth *person.MockAuthorizer) {
				auth.EXPECT().Authorize(gomock.Any(), tokens).Return(nil)
				repo.EXPECT().
					CreatePerson(gomock.Any(), &person.Person{Name: "Alice"}).
					DoAndReturn(func(_ context.Context, p *person.Person) error {
						p.ID = 1
						return nil
					})
			},
		},
		{
			name: "Unauthorized",
			args: args{name: "Alice"},
			setupMock: func(_ *person.MockRepository, auth *person.MockAuthorizer) {
				auth.EXPECT().Authorize(gomock.Any(), tokens).Return(apperr.ErrUnauthorized)
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "UnauthorizedBeforeValidation",
			args: args{name: ""},
			setupMock: func(_ *person.MockRepository, auth *person.MockAuthorizer) {
				auth.EXPECT().Authorize(gomock.Any(), tokens).Return(apperr.ErrUnauthorized)
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "EmptyName",
			args: args{name: "   "},
			setupMock: func(_ *person.MockRepository, auth *person.MockAuthorizer) {
				auth.EXPECT().Authorize(gomock.Any(), tokens).Return(nil)
			},
			wantErr: apperr.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := person.NewMockRepository(ctrl)
			auth := person.NewMockAuthorizer(ctrl)
			tt.setupMock(repo, auth)

			svc := person.NewService(repo, auth)
			got, err := svc.Create(context.Background(), tt.args.name, tokens)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(1), got.ID)
			assert.Equal(t, "Alice", got.Name)
		})
	}
}

func TestService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := person.NewMockRepository(ctrl)
	svc := person.NewService(repo, person.NewMockAuthorizer(ctrl))

	repo.EXPECT().GetPerson(gomock.Any(), int64(7)).Return(&person.Person{ID: 7, Name: "Bob"}, nil)
	repo.EXPECT().GetPerson(gomock.Any(), int64(8)).Return(nil, apperr.ErrNotFound)
	repo.EXPECT().GetPerson(gomock.Any(), int64(9)).Return(nil, errors.New("db error"))

	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)

	got, err = svc.Get(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Get(context.Background(), 9)
	assert.Error(t, err)
}

func TestService_Delete(t *testing.T) {
	type testCase struct {
		name      string
		setupMock func(repo *person.MockRepository, auth *person.MockAuthorizer)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(repo *person.MockRepository, auth *person.MockAuthorizer) {
				auth.EXPECT().Authorize(gomock.Any(), tokens).Return(nil)
				repo.EXPECT().DeletePerson(gomock.Any(), int64(3)).Return(nil)
			},
		},
		{
			name: "NotFound",
			setupMock: func(repo *person.MockRepository, auth *person.MockAuthorizer) {
				auth.EXPECT().Authorize(gomock.Any(), tokens).Return(nil)
				repo.EXPECT().DeletePerson(gomock.Any(), int64(3)).Return(apperr.ErrNotFound)
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "Unauthorized",
			setupMock: func(_ *person.MockRepository, auth *person.MockAuthorizer) {
				auth.EXPECT().Authorize(gomock.Any(), tokens).Return(apperr.ErrUnauthorized)
			},
			wantErr: apperr.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := person.NewMockRepository(ctrl)
			auth := person.NewMockAuthorizer(ctrl)
			tt.setupMock(repo, auth)

			err := person.NewService(repo, auth).Delete(context.Background(), 3, tokens)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
