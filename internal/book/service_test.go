package book

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo)
	ctx := context.Background()

	t.Run("valid fields reach the repository", func(t *testing.T) {
		f := validFields()
		mockRepo.EXPECT().Create(gomock.Any(), f).Return(f.WithID("13"), nil)

		got, err := service.Create(ctx, f)
		assert.NoError(t, err)
		assert.Equal(t, "13", got.ID)
	})

	t.Run("invalid fields never reach the repository", func(t *testing.T) {
		_, err := service.Create(ctx, Fields{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo)
	ctx := context.Background()

	t.Run("not found passes through", func(t *testing.T) {
		title := "Renamed"
		mockRepo.EXPECT().Update(gomock.Any(), "missing", Patch{Title: &title}).Return(Book{}, ErrNotFound)

		_, err := service.Update(ctx, "missing", Patch{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid patch is rejected locally", func(t *testing.T) {
		year := 1
		_, err := service.Update(ctx, "1", Patch{PublishedYear: &year})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo)

	mockRepo.EXPECT().List(gomock.Any()).Return(SampleBooks(), nil)

	stats, err := service.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 12, stats.Total)
	assert.Equal(t, 4, stats.Issued)
}
