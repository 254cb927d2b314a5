//go:build integration

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vaultflow/internal/presentation/cycle"
	"vaultflow/internal/presentation/models"
	"vaultflow/internal/sentinel"
	"vaultflow/pkg/testutil"
	"vaultflow/pkg/testutil/containers"
)

type RedisLockerSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.ctx = context.Background()
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

// Two lockers stand in for two instances sharing one Redis. Each runs the
// load, modify and save sequence the presentation service runs.
func (s *RedisLockerSuite) TestInstancesDoNotLoseUpdates() {
	store := NewRedis(s.redis.Client, time.Hour)
	lockers := []*RedisLocker{
		NewRedisLocker(s.redis.Client, 5*time.Second),
		NewRedisLocker(s.redis.Client, 5*time.Second),
	}
	c := newCycle()
	c.State = cycle.StateAwaitingWallet
	s.Require().NoError(store.Save(s.ctx, c))

	const goroutines = 20
	result := testutil.RunConcurrent(goroutines, func(idx int) error {
		return lockers[idx%2].WithLock(s.ctx, c.SessionID.String(), func() error {
			found, err := store.FindBySession(s.ctx, c.SessionID)
			if err != nil {
				return err
			}
			if found.Data == nil {
				found.Data = models.Claims{}
			}
			found.Data[fmt.Sprintf("claim_%d", idx)] = float64(idx)
			found.State = cycle.StateComplete
			return store.Save(s.ctx, found)
		})
	})

	s.Equal(int32(goroutines), result.Successes)
	found, err := store.FindBySession(s.ctx, c.SessionID)
	s.Require().NoError(err)
	s.Len(found.Data, goroutines)
}

func (s *RedisLockerSuite) TestWaitingGivesUpWithContext() {
	holder := NewRedisLocker(s.redis.Client, 5*time.Second)
	waiter := NewRedisLocker(s.redis.Client, 5*time.Second)
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- holder.WithLock(s.ctx, "session-1", func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(s.ctx, 100*time.Millisecond)
	defer cancel()
	ran := false
	err := waiter.WithLock(ctx, "session-1", func() error {
		ran = true
		return nil
	})
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrUnavailable))
	s.False(ran)

	close(release)
	s.Require().NoError(<-done)
	s.Require().NoError(waiter.WithLock(s.ctx, "session-1", func() error { return nil }))
}

func (s *RedisLockerSuite) TestExpiredHolderDoesNotReleaseNewHolder() {
	first := NewRedisLocker(s.redis.Client, 200*time.Millisecond)
	second := NewRedisLocker(s.redis.Client, 5*time.Second)
	acquired := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	err := first.WithLock(s.ctx, "session-2", func() error {
		// Outlive the lock so the second instance takes it over.
		time.Sleep(300 * time.Millisecond)
		go func() {
			done <- second.WithLock(s.ctx, "session-2", func() error {
				close(acquired)
				<-release
				return nil
			})
		}()
		<-acquired
		return nil
	})
	s.Require().NoError(err)

	exists, err := s.redis.Client.Exists(s.ctx, lockKeyPrefix+"session-2").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists, "the second holder keeps its lock")

	close(release)
	s.Require().NoError(<-done)
	exists, err = s.redis.Client.Exists(s.ctx, lockKeyPrefix+"session-2").Result()
	s.Require().NoError(err)
	s.Zero(exists)
}

func (s *RedisLockerSuite) TestCallbackErrorIsReturnedAndLockReleased() {
	locker := NewRedisLocker(s.redis.Client, 5*time.Second)
	boom := errors.New("boom")

	err := locker.WithLock(s.ctx, "session-3", func() error { return boom })
	s.ErrorIs(err, boom)

	exists, err := s.redis.Client.Exists(s.ctx, lockKeyPrefix+"session-3").Result()
	s.Require().NoError(err)
	s.Zero(exists)
}
