// Package persist maps a problem set hash to a serialized session.
//
// The layer never fails outward on reads: a missing key, a storage error, or
// an undecodable record all mean "no saved session". Write failures are logged
// and returned, and callers keep their in-memory state.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuiorder/internal/session"
)

// DefaultNamespace prefixes every session key.
const DefaultNamespace = "tuiorder-session"

// KV is the minimal storage capability the layer needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Sessions stores session states under "<namespace>:<hash>".
type Sessions struct {
	kv        KV
	namespace string
	logger    *zap.Logger
}

// New returns a Sessions layer over kv.
func New(kv KV, namespace string, logger *zap.Logger) *Sessions {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{kv: kv, namespace: namespace, logger: logger}
}

// Key returns the storage key for hash.
func (s *Sessions) Key(hash string) string {
	return s.namespace + ":" + hash
}

// Load returns the stored state for hash, if any.
func (s *Sessions) Load(ctx context.Context, hash string) (session.State, bool) {
	key := s.Key(hash)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read saved session", zap.String("key", key), zap.Error(err))
		return session.State{}, false
	}
	if !ok {
		return session.State{}, false
	}
	var st session.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.Warn("discarding corrupt saved session", zap.String("key", key), zap.Error(err))
		return session.State{}, false
	}
	return st, true
}

// Save writes st for hash.
func (s *Sessions) Save(ctx context.Context, hash string, st session.State) error {
	key := s.Key(hash)
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Error("failed to encode session", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		s.logger.Warn("failed to save session", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
