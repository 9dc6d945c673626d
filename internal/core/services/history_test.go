package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven/mocks"
	"github.com/tkgathr2/bulk/internal/core/ports/driving"
)

func TestHistoryService_SaveAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(mocks.NewMockHistoryStore())

	list, err := svc.List(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	entry, err := svc.Save(ctx, "s1", driving.SaveHistoryRequest{Query: "  budget  "})
	require.NoError(t, err)
	assert.Equal(t, "budget", entry.Query)
	assert.True(t, strings.HasPrefix(entry.ID, "hist_"))
	assert.Equal(t, domain.AllServices(), entry.Filters.Services)

	list, err = svc.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entry.ID, list[0].ID)

	other, err := svc.List(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestHistoryService_CapsAtThirtyNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(mocks.NewMockHistoryStore())

	for i := 0; i < 35; i++ {
		_, err := svc.Save(ctx, "s1", driving.SaveHistoryRequest{Query: fmt.Sprintf("q%d", i)})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, domain.MaxHistoryEntries)
	assert.Equal(t, "q34", list[0].Query)
	assert.Equal(t, "q5", list[len(list)-1].Query)
}

func TestHistoryService_SaveValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(mocks.NewMockHistoryStore())

	_, err := svc.Save(ctx, "s1", driving.SaveHistoryRequest{Query: " "})
	assert.ErrorIs(t, err, domain.ErrQueryRequired)

	_, err = svc.Save(ctx, "s1", driving.SaveHistoryRequest{Query: strings.Repeat("x", 201)})
	assert.ErrorIs(t, err, domain.ErrQueryTooLong)
}

func TestHistoryService_SaveKeepsFilters(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(mocks.NewMockHistoryStore())
	from := "2024-01-01"
	ft := domain.FileTypePDF

	entry, err := svc.Save(ctx, "s1", driving.SaveHistoryRequest{
		Query:   "q",
		Filters: &domain.SearchFilters{DateFrom: &from, FileType: &ft},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AllServices(), entry.Filters.Services)
	assert.Equal(t, &from, entry.Filters.DateFrom)
	assert.Equal(t, &ft, entry.Filters.FileType)
}

func TestHistoryService_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(mocks.NewMockHistoryStore())

	a, _ := svc.Save(ctx, "s1", driving.SaveHistoryRequest{Query: "a"})
	_, _ = svc.Save(ctx, "s1", driving.SaveHistoryRequest{Query: "b"})

	require.NoError(t, svc.Delete(ctx, "s1", a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "s1", a.ID), domain.ErrNotFound)

	list, _ := svc.List(ctx, "s1")
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Query)

	require.NoError(t, svc.Clear(ctx, "s1"))
	list, _ = svc.List(ctx, "s1")
	assert.Empty(t, list)
}
