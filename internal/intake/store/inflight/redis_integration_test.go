//go:build integration

package inflight_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grantintake/internal/intake/store/inflight"
	"grantintake/pkg/platform/sentinel"
	"grantintake/pkg/testutil/containers"
)

type RedisGuardSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	guard *inflight.Redis
}

func TestRedisGuardSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisGuardSuite))
}

func (s *RedisGuardSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.guard = inflight.NewRedis(s.redis.Client, time.Second)
}

func (s *RedisGuardSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisGuardSuite) TestAcquireRelease() {
	ctx := context.Background()
	s.Require().NoError(s.guard.Acquire(ctx, "draft-1"))
	s.ErrorIs(s.guard.Acquire(ctx, "draft-1"), sentinel.ErrInFlight)
	s.Require().NoError(s.guard.Release(ctx, "draft-1"))
	s.NoError(s.guard.Acquire(ctx, "draft-1"))
}

func (s *RedisGuardSuite) TestHoldExpires() {
	ctx := context.Background()
	s.Require().NoError(s.guard.Acquire(ctx, "draft-2"))
	s.Eventually(func() bool {
		return s.guard.Acquire(ctx, "draft-2") == nil
	}, 5*time.Second, 100*time.Millisecond)
}
