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
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

var errLockHeld = errors.New("lock held")

type Locker struct {
	client redis.UniversalClient
	key    string
	value  string // Used for ensuring that only the lock holder can unlock the lock
}

func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	return &Locker{
		client: client,
		key:    key,
		value:  value,
	}
}

// AccountKey is the lock key guarding every balance mutation of one account.
func AccountKey(accountNo int64) string {
	return fmt.Sprintf("bookbank:account:%d", accountNo)
}

func (l *Locker) Lock(ctx context.Context, timeout time.Duration) error {
	success, err := l.client.SetNX(ctx, l.key, l.value, timeout).Result()
	if err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("lock for key %s is already held", l.key)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}

// WaitLock retries Lock with exponential backoff until the lock is taken or
// waitTimeout elapses. Redis errors stop the wait immediately.
func (l *Locker) WaitLock(ctx context.Context, lockTimeout, waitTimeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = waitTimeout

	err := backoff.Retry(func() error {
		success, err := l.client.SetNX(ctx, l.key, l.value, lockTimeout).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !success {
			return errLockHeld
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, errLockHeld) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to acquire lock for key %s within the wait timeout", l.key)
	}
	return err
}

// MultiLocker holds the locks of several keys at once. Keys are always taken
// in sorted order so two holders can never wait on each other.
type MultiLocker struct {
	lockers []*Locker
}

func NewMultiLocker(client redis.UniversalClient, value string, keys ...string) *MultiLocker {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	m := &MultiLocker{}
	for i, key := range sorted {
		if i > 0 && sorted[i-1] == key {
			continue
		}
		m.lockers = append(m.lockers, NewLocker(client, key, value))
	}
	return m
}

// WaitLock acquires every key or none of them.
func (m *MultiLocker) WaitLock(ctx context.Context, lockTimeout, waitTimeout time.Duration) error {
	for i, l := range m.lockers {
		if err := l.WaitLock(ctx, lockTimeout, waitTimeout); err != nil {
			m.release(ctx, m.lockers[:i])
			return err
		}
	}
	return nil
}

func (m *MultiLocker) Unlock(ctx context.Context) error {
	return m.release(ctx, m.lockers)
}

func (m *MultiLocker) release(ctx context.Context, held []*Locker) error {
	var firstErr error
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Unlock(ctx); err != nil {
			logrus.WithField("key", held[i].key).Error(err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
