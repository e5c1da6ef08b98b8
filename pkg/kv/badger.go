/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
)

// BadgerStore is the default embedded store, kept in a local directory.
type BadgerStore struct {
	db     *badger.DB
	logger logger.Logger
}

func NewBadgerStore(path string, log logger.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{log: log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", path, err)
	}

	return &BadgerStore{db: db, logger: log}, nil
}

func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)

		return err
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, false, nil
	case errors.Is(err, badger.ErrDBClosed):
		return nil, false, ErrStoreClosed
	case err != nil:
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, true, nil
}

func (b *BadgerStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}

		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("failed to put key %s: %w", key, err)
		}

		return nil
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrStoreClosed
	}

	return err
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

// Watch subscribes to badger's change stream for key.
func (b *BadgerStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	if b.db.IsClosed() {
		return nil, ErrStoreClosed
	}

	ch := make(chan []byte, 1)
	target := []byte(key)

	go func() {
		defer close(ch)

		err := b.db.Subscribe(ctx, func(list *badger.KVList) error {
			for _, kv := range list.GetKv() {
				if !bytes.Equal(kv.GetKey(), target) {
					continue
				}

				var value []byte
				if len(kv.GetValue()) > 0 {
					value = append([]byte(nil), kv.GetValue()...)
				}

				select {
				case ch <- value:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			return nil
		}, []pb.Match{{Prefix: target}})
		if err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warn().Err(err).Str("key", key).Msg("Badger watch ended")
		}
	}()

	return ch, nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

var _ KVStore = (*BadgerStore)(nil)

// badgerLogger routes badger's internal logging into zerolog.
type badgerLogger struct {
	log logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Str("component", "badger").Msg(trimLine(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Str("component", "badger").Msg(trimLine(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Str("component", "badger").Msg(trimLine(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Str("component", "badger").Msg(trimLine(format, args...))
}

func trimLine(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
