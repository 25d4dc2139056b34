package health

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestPingChecker(t *testing.T) {
	assert.NoError(t, PingChecker(stubPinger{})())
	assert.EqualError(t, PingChecker(stubPinger{err: errors.New("refused")})(), "refused")
	assert.EqualError(t, PingChecker(nil)(), "not configured")
}

func TestDatabaseChecker_NilPool(t *testing.T) {
	assert.EqualError(t, DatabaseChecker(nil)(), "not configured")
}

func TestRedisChecker(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetVal("PONG")

		assert.NoError(t, RedisChecker(client)())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unreachable", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetErr(errors.New("connection refused"))

		assert.Error(t, RedisChecker(client)())
	})

	t.Run("nil client", func(t *testing.T) {
		assert.EqualError(t, RedisChecker(nil)(), "not configured")
	})
}
