package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	apperrors "github.com/miguelbaldi/kafka-browser/pkg/errors"
)

func TestSaveConnectionAssignsID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveConnection(ctx, &domain.Connection{
		Name:        "local",
		BrokersList: "localhost:9092",
		Security: domain.SecurityConfig{
			Protocol:      domain.SecurityProtocolSASLPlain,
			SASLMechanism: domain.SASLMechanismScramSHA512,
			Username:      "admin",
			Password:      "secret",
		},
		Timeout: 3 * time.Second,
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	found, err := s.FindConnection(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, *saved, *found)
}

func TestSaveConnectionMatchesByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.SaveConnection(ctx, &domain.Connection{Name: "local", BrokersList: "localhost:9092"})
	require.NoError(t, err)

	// Same name without an id updates the existing row.
	second, err := s.SaveConnection(ctx, &domain.Connection{Name: "local", BrokersList: "broker:9093"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := s.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "broker:9093", all[0].BrokersList)
}

func TestFindConnectionMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.FindConnection(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.Code(err))
}

func TestListConnectionsSortedByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"staging", "dev", "prod"} {
		_, err := s.SaveConnection(ctx, &domain.Connection{Name: name, BrokersList: "localhost:9092"})
		require.NoError(t, err)
	}

	all, err := s.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"dev", "prod", "staging"}, []string{all[0].Name, all[1].Name, all[2].Name})
}
