package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ethpandaops/contrack/pkg/contracts"
	r "github.com/ethpandaops/contrack/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyContractData  = "contracts:data"  // hash: id -> contract JSON
	keyContractIndex = "contracts:index" // list: ids in insertion order
	keyImports       = "imports"         // list: import log JSON, newest first
	keyParams        = "params"          // string: alert config JSON
	keyUsers         = "users"           // hash: email -> profile JSON
	keyAlerts        = "alerts:latest"   // string: alert snapshot JSON

	// MaxImportLogs is how many import logs are retained
	MaxImportLogs = 100

	maxTxRetries = 5
)

// ErrTxConflict is returned when optimistic transactions keep failing
var ErrTxConflict = errors.New("contracts changed concurrently, giving up")

// Store is the persistence boundary used by the tracker
type Store interface {
	// List returns every stored contract in insertion order, read atomically
	List(ctx context.Context) ([]contracts.Contract, error)
	Get(ctx context.Context, id string) (*contracts.Contract, error)
	// ReplaceAll drops the stored collection and writes batch
	ReplaceAll(ctx context.Context, batch []contracts.Contract) (WriteResult, error)
	// Merge upserts batch by id
	Merge(ctx context.Context, batch []contracts.Contract) (WriteResult, error)
	SetStatus(ctx context.Context, id string, status contracts.Status) (*contracts.Contract, error)

	AppendImportLog(ctx context.Context, log ImportLog) error
	ImportLogs(ctx context.Context, limit int) ([]ImportLog, error)

	Params(ctx context.Context) (contracts.AlertConfig, bool, error)
	SaveParams(ctx context.Context, cfg contracts.AlertConfig) error

	GetUser(ctx context.Context, email string) (*UserProfile, error)
	SaveUser(ctx context.Context, user UserProfile) error
	ListUsers(ctx context.Context) ([]UserProfile, error)

	SaveAlertSnapshot(ctx context.Context, snapshot AlertSnapshot) error
	LatestAlertSnapshot(ctx context.Context) (*AlertSnapshot, error)
}

type redisStore struct {
	log    logrus.FieldLogger
	client *redis.Client
	cfg    *r.Config
}

// New creates a Redis-backed store
func New(log logrus.FieldLogger, client *redis.Client, cfg *r.Config) Store {
	return &redisStore{
		log:    log.WithField("component", "store"),
		client: client,
		cfg:    cfg,
	}
}

func (s *redisStore) key(k string) string {
	return s.cfg.PrefixKey(k)
}

func (s *redisStore) List(ctx context.Context) ([]contracts.Contract, error) {
	var (
		idsCmd  *redis.StringSliceCmd
		dataCmd *redis.MapStringStringCmd
	)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		idsCmd = pipe.LRange(ctx, s.key(keyContractIndex), 0, -1)
		dataCmd = pipe.HGetAll(ctx, s.key(keyContractData))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read contracts: %w", err)
	}

	data := dataCmd.Val()
	out := make([]contracts.Contract, 0, len(data))

	for _, id := range idsCmd.Val() {
		raw, ok := data[id]
		if !ok {
			s.log.WithField("contract_id", id).Warn("Contract listed in index but missing from data")

			continue
		}

		c, err := decodeContract(id, raw)
		if err != nil {
			return nil, err
		}

		out = append(out, *c)
	}

	return out, nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*contracts.Contract, error) {
	raw, err := s.client.HGet(ctx, s.key(keyContractData), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrContractNotFound
		}

		return nil, fmt.Errorf("failed to get contract %s: %w", id, err)
	}

	return decodeContract(id, raw)
}

func (s *redisStore) ReplaceAll(ctx context.Context, batch []contracts.Contract) (WriteResult, error) {
	ids, values, err := encodeBatch(batch)
	if err != nil {
		return WriteResult{}, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(keyContractData), s.key(keyContractIndex))

		if len(ids) > 0 {
			pipe.HSet(ctx, s.key(keyContractData), values)
			pipe.RPush(ctx, s.key(keyContractIndex), toArgs(ids)...)
		}

		return nil
	})
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to replace contracts: %w", err)
	}

	s.log.WithField("contracts", len(ids)).Info("Replaced contract collection")

	return WriteResult{Inserted: len(ids)}, nil
}

func (s *redisStore) Merge(ctx context.Context, batch []contracts.Contract) (WriteResult, error) {
	batch = dedupe(batch)
	if len(batch) == 0 {
		return WriteResult{}, nil
	}

	ids := make([]string, len(batch))
	for i := range batch {
		ids[i] = batch[i].ID
	}

	var result WriteResult

	txf := func(tx *redis.Tx) error {
		existing, err := tx.HMGet(ctx, s.key(keyContractData), ids...).Result()
		if err != nil {
			return err
		}

		result = WriteResult{}
		values := make(map[string]interface{}, len(batch))
		newIDs := make([]interface{}, 0, len(batch))

		for i := range batch {
			c := batch[i]

			raw, found := existing[i].(string)
			if !found {
				result.Inserted++
				newIDs = append(newIDs, c.ID)
			} else {
				result.Updated++

				stored, err := decodeContract(c.ID, raw)
				if err != nil {
					return err
				}

				// an explicit termination survives re-imports of the same record
				if stored.Status == contracts.StatusTerminated {
					c.Status = contracts.StatusTerminated
				}
			}

			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("failed to encode contract %s: %w", c.ID, err)
			}

			values[c.ID] = data
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key(keyContractData), values)

			if len(newIDs) > 0 {
				pipe.RPush(ctx, s.key(keyContractIndex), newIDs...)
			}

			return nil
		})

		return err
	}

	if err := s.watch(ctx, txf, s.key(keyContractData)); err != nil {
		return WriteResult{}, fmt.Errorf("failed to merge contracts: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"inserted": result.Inserted,
		"updated":  result.Updated,
	}).Info("Merged contracts")

	return result, nil
}

func (s *redisStore) SetStatus(ctx context.Context, id string, status contracts.Status) (*contracts.Contract, error) {
	var updated *contracts.Contract

	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, s.key(keyContractData), id).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrContractNotFound
			}

			return err
		}

		c, err := decodeContract(id, raw)
		if err != nil {
			return err
		}

		c.Status = status

		data, err := json.Marshal(c)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key(keyContractData), id, data)

			return nil
		})
		if err != nil {
			return err
		}

		updated = c

		return nil
	}

	if err := s.watch(ctx, txf, s.key(keyContractData)); err != nil {
		if errors.Is(err, ErrContractNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to set status for contract %s: %w", id, err)
	}

	return updated, nil
}

// watch runs txf optimistically, retrying when the watched keys change.
func (s *redisStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}

		s.log.WithField("attempt", i+1).Debug("Optimistic transaction conflict, retrying")
	}

	return ErrTxConflict
}

func (s *redisStore) AppendImportLog(ctx context.Context, log ImportLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key(keyImports), data)
		pipe.LTrim(ctx, s.key(keyImports), 0, MaxImportLogs-1)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append import log: %w", err)
	}

	return nil
}

func (s *redisStore) ImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 || limit > MaxImportLogs {
		limit = MaxImportLogs
	}

	raws, err := s.client.LRange(ctx, s.key(keyImports), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read import logs: %w", err)
	}

	logs := make([]ImportLog, 0, len(raws))
	for _, raw := range raws {
		var l ImportLog
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("failed to decode import log: %w", err)
		}

		logs = append(logs, l)
	}

	return logs, nil
}

func (s *redisStore) Params(ctx context.Context) (contracts.AlertConfig, bool, error) {
	raw, err := s.client.Get(ctx, s.key(keyParams)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return contracts.AlertConfig{}, false, nil
		}

		return contracts.AlertConfig{}, false, fmt.Errorf("failed to read params: %w", err)
	}

	var cfg contracts.AlertConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return contracts.AlertConfig{}, false, fmt.Errorf("failed to decode params: %w", err)
	}

	return cfg, true, nil
}

func (s *redisStore) SaveParams(ctx context.Context, cfg contracts.AlertConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(keyParams), data, 0).Err()
}

func (s *redisStore) GetUser(ctx context.Context, email string) (*UserProfile, error) {
	raw, err := s.client.HGet(ctx, s.key(keyUsers), NormalizeEmail(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var u UserProfile
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	return &u, nil
}

func (s *redisStore) SaveUser(ctx context.Context, user UserProfile) error {
	user.Email = NormalizeEmail(user.Email)

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return s.client.HSet(ctx, s.key(keyUsers), user.Email, data).Err()
}

func (s *redisStore) ListUsers(ctx context.Context) ([]UserProfile, error) {
	raws, err := s.client.HGetAll(ctx, s.key(keyUsers)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]UserProfile, 0, len(raws))
	for _, raw := range raws {
		var u UserProfile
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}

		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})

	return users, nil
}

func (s *redisStore) SaveAlertSnapshot(ctx context.Context, snapshot AlertSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(keyAlerts), data, 0).Err()
}

func (s *redisStore) LatestAlertSnapshot(ctx context.Context) (*AlertSnapshot, error) {
	raw, err := s.client.Get(ctx, s.key(keyAlerts)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read alert snapshot: %w", err)
	}

	var snapshot AlertSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode alert snapshot: %w", err)
	}

	return &snapshot, nil
}

func decodeContract(id, raw string) (*contracts.Contract, error) {
	var c contracts.Contract
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, &contracts.InvalidContractDataError{ID: id, Field: "record", Reason: err.Error()}
	}

	return &c, nil
}

// encodeBatch dedupes batch and returns ordered ids plus the id->JSON map.
func encodeBatch(batch []contracts.Contract) ([]string, map[string]interface{}, error) {
	batch = dedupe(batch)

	ids := make([]string, 0, len(batch))
	values := make(map[string]interface{}, len(batch))

	for i := range batch {
		data, err := json.Marshal(batch[i])
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode contract %s: %w", batch[i].ID, err)
		}

		ids = append(ids, batch[i].ID)
		values[batch[i].ID] = data
	}

	return ids, values, nil
}

// dedupe keeps the first position and the last value of repeated ids.
func dedupe(batch []contracts.Contract) []contracts.Contract {
	pos := make(map[string]int, len(batch))
	out := make([]contracts.Contract, 0, len(batch))

	for i := range batch {
		if p, ok := pos[batch[i].ID]; ok {
			out[p] = batch[i]

			continue
		}

		pos[batch[i].ID] = len(out)
		out = append(out, batch[i])
	}

	return out
}

func toArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return args
}
