package hold_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/kpaulsen/apflow/internal/hold"
	"github.com/kpaulsen/apflow/internal/match"
)

func TestService_Create(t *testing.T) {
	type args struct {
		params hold.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *hold.MockRepository)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				params: hold.CreateParams{
					DocumentID:       uuid.New(),
					Reason:           match.ReasonVarianceExceeded,
					Details:          "variance $60.00 exceeds tolerance $25.00",
					SuggestedActions: []string{"review billed total against PO 1234567"},
				},
			},
			setupMock: func(m *hold.MockRepository) {
				m.EXPECT().
					CreateHold(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, h *hold.Hold) error {
						h.ID = uuid.New()
						h.CreatedAt = time.Now()
						return nil
					})
			},
			wantErr: false,
		},
		{
			name: "RepoError",
			args: args{
				params: hold.CreateParams{
					DocumentID: uuid.New(),
					Reason:     match.ReasonMissingPO,
				},
			},
			setupMock: func(m *hold.MockRepository) {
				m.EXPECT().
					CreateHold(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := hold.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := hold.NewService(repo)
			got, err := svc.Create(context.Background(), tt.args.params)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
		})
	}
}

func TestService_Resolve(t *testing.T) {
	id := uuid.New()

	type args struct {
		id         uuid.UUID
		resolvedBy string
		resolution string
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *hold.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{id: id, resolvedBy: "kpaulsen", resolution: "matched to job after phone call"},
			setupMock: func(m *hold.MockRepository) {
				m.EXPECT().
					ResolveHold(gomock.Any(), id, "kpaulsen", "matched to job after phone call").
					DoAndReturn(func(_ context.Context, id uuid.UUID, by, res string) (*hold.Hold, error) {
						now := time.Now()
						return &hold.Hold{ID: id, ResolvedAt: &now, ResolvedBy: &by, Resolution: &res}, nil
					})
			},
		},
		{
			name: "AlreadyResolved",
			args: args{id: id, resolvedBy: "kpaulsen"},
			setupMock: func(m *hold.MockRepository) {
				m.EXPECT().
					ResolveHold(gomock.Any(), id, "kpaulsen", "").
					Return(nil, hold.ErrAlreadyResolved)
			},
			wantErr: hold.ErrAlreadyResolved,
		},
		{
			name: "NotFound",
			args: args{id: id, resolvedBy: "kpaulsen"},
			setupMock: func(m *hold.MockRepository) {
				m.EXPECT().
					ResolveHold(gomock.Any(), id, "kpaulsen", "").
					Return(nil, hold.ErrNotFound)
			},
			wantErr: hold.ErrNotFound,
		},
		{
			// The repository is not consulted when the caller is unknown.
			name: "MissingResolvedBy",
			args: args{id: id, resolvedBy: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := hold.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := hold.NewService(repo)
			got, err := svc.Resolve(context.Background(), tt.args.id, tt.args.resolvedBy, tt.args.resolution)

			if tt.name == "MissingResolvedBy" {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			assert.True(t, got.Resolved())

			if assert.NotNil(t, got.ResolvedBy) {
				assert.Equal(t, "kpaulsen", *got.ResolvedBy)
			}
		})
	}
}

func TestService_List(t *testing.T) {
	type args struct {
		filter hold.ListFilter
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *hold.MockRepository)
		wantLen   int
		wantErr   bool
	}

	unresolvedOnly := hold.ListFilter{Unresolved: true}

	tests := []testCase{
		{
			name: "Success",
			args: args{filter: unresolvedOnly},
			setupMock: func(m *hold.MockRepository) {
				m.EXPECT().
					ListHolds(gomock.Any(), unresolvedOnly).
					Return([]*hold.Hold{
						{ID: uuid.New()},
						{ID: uuid.New()},
					}, nil)
			},
			wantLen: 2,
		},
		{
			name: "Error",
			args: args{filter: hold.ListFilter{}},
			setupMock: func(m *hold.MockRepository) {
				m.EXPECT().
					ListHolds(gomock.Any(), hold.ListFilter{}).
					Return(nil, errors.New("list error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := hold.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := hold.NewService(repo)
			got, err := svc.List(context.Background(), tt.args.filter)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}
