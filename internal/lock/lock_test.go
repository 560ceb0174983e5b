/*
Copyright 2024 Bookbank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package redlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountKey(t *testing.T) {
	assert.Equal(t, "bookbank:account:1001", AccountKey(1001))
}

func TestLocker_Lock_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(true)

	err := locker.Lock(context.Background(), 5*time.Second)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Lock_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(false)

	err := locker.Lock(context.Background(), 5*time.Second)
	assert.EqualError(t, err, "lock for key test-key is already held")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Unlock_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	mock.ExpectEval(unlockScript, []string{"test-key"}, "test-value").SetVal(int64(1))

	err := locker.Unlock(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Unlock_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	// Lock expired or held by someone else
	mock.ExpectEval(unlockScript, []string{"test-key"}, "test-value").SetVal(int64(0))

	err := locker.Unlock(context.Background())
	assert.EqualError(t, err, "unlock failed, either lock expired or you're not the lock holder for key test-key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_WaitLock_RetriesUntilFree(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(false)
	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(true)

	err := locker.WaitLock(context.Background(), 5*time.Second, time.Second)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_WaitLock_RedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetErr(errors.New("connection refused"))

	err := locker.WaitLock(context.Background(), 5*time.Second, time.Second)
	assert.EqualError(t, err, "connection refused")
}

func TestLocker_WaitLock_Timeout(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	holder := NewLocker(client, "test-key", "holder")
	require.NoError(t, holder.Lock(context.Background(), 5*time.Second))

	waiter := NewLocker(client, "test-key", "waiter")
	err := waiter.WaitLock(context.Background(), 5*time.Second, 50*time.Millisecond)
	assert.EqualError(t, err, "failed to acquire lock for key test-key within the wait timeout")

	require.NoError(t, holder.Unlock(context.Background()))
	assert.NoError(t, waiter.WaitLock(context.Background(), 5*time.Second, 50*time.Millisecond))
}

func TestMultiLocker_SortsAndDedupes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	m := NewMultiLocker(client, "holder", AccountKey(1002), AccountKey(1001), AccountKey(1002))
	require.Len(t, m.lockers, 2)
	assert.Equal(t, AccountKey(1001), m.lockers[0].key)
	assert.Equal(t, AccountKey(1002), m.lockers[1].key)

	require.NoError(t, m.WaitLock(context.Background(), 5*time.Second, 50*time.Millisecond))
	assert.True(t, mr.Exists(AccountKey(1001)))
	assert.True(t, mr.Exists(AccountKey(1002)))

	require.NoError(t, m.Unlock(context.Background()))
	assert.False(t, mr.Exists(AccountKey(1001)))
	assert.False(t, mr.Exists(AccountKey(1002)))
}

func TestMultiLocker_ReleasesOnPartialFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	other := NewLocker(client, AccountKey(1002), "other")
	require.NoError(t, other.Lock(context.Background(), 5*time.Second))

	m := NewMultiLocker(client, "holder", AccountKey(1001), AccountKey(1002))
	err := m.WaitLock(context.Background(), 5*time.Second, 50*time.Millisecond)
	assert.Error(t, err)

	// the first key must not stay held after the second one failed
	assert.False(t, mr.Exists(AccountKey(1001)))
	got, _ := mr.Get(AccountKey(1002))
	assert.Equal(t, "other", got)
}
