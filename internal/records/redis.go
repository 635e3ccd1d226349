package records

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
)

// appendScript pushes ARGV[2] only when ARGV[1] is a new record id.
var appendScript = redis.NewScript(`
if redis.call('SADD', KEYS[2], ARGV[1]) == 1 then
	return redis.call('RPUSH', KEYS[1], ARGV[2])
end
return 0
`)

// RedisStore keeps one list per collection, oldest record first, plus a set
// of the record ids already in it.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    logger.Logger
}

func NewRedisStore(client *redis.Client, keyPrefix string, log logger.Logger) *RedisStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, logger: log}
}

func (s *RedisStore) key(collection string) string {
	return s.keyPrefix + "records:" + collectionOrDefault(collection)
}

func (s *RedisStore) idsKey(collection string) string {
	return s.key(collection) + ":ids"
}

func (s *RedisStore) Append(ctx context.Context, collection string, rec models.ApplicantRecord) error {
	payload, err := encode(rec)
	if err != nil {
		return err
	}
	keys := []string{s.key(collection), s.idsKey(collection)}
	if err := appendScript.Run(ctx, s.client, keys, rec.RecordID, payload).Err(); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]models.ApplicantRecord, error) {
	values, err := s.client.LRange(ctx, s.key(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange records: %w", err)
	}

	payloads := make([][]byte, len(values))
	for i, v := range values {
		payloads[i] = []byte(v)
	}

	out, bad := decodeAll(payloads)
	for _, err := range bad {
		s.logger.Warn("skipping undecodable record", map[string]interface{}{
			"collection": collection,
			"error":      err,
		})
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
