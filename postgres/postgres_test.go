package postgres_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/paraglidehq/base45"
	"github.com/paraglidehq/base45/postgres"
)

func setupPostgres(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
		testcontainers.CustomizeRequestOption(func(req *testcontainers.GenericContainerRequest) error {
			req.ContainerRequest.WaitingFor = wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second)
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		db.Close()
		container.Terminate(ctx)
	}

	return db, cleanup
}

func TestMigrate(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	cfg := postgres.DefaultConfig()

	// First migration should succeed
	if err := postgres.Migrate(ctx, db, cfg); err != nil {
		t.Fatalf("first migration failed: %v", err)
	}

	// Second migration should be idempotent
	if err := postgres.Migrate(ctx, db, cfg); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}

	storedCfg, err := postgres.GetConfig(ctx, db)
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if storedCfg != cfg {
		t.Errorf("stored config %+v != expected %+v", storedCfg, cfg)
	}
}

func TestMigrateConfigMismatch(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()

	if err := postgres.Migrate(ctx, db, postgres.DefaultConfig()); err != nil {
		t.Fatalf("first migration failed: %v", err)
	}

	differentCfg := postgres.Config{Prefix: "base45", Strict: false}
	err := postgres.Migrate(ctx, db, differentCfg)
	if err == nil {
		t.Fatal("expected error for config mismatch, got nil")
	}
	if !errors.Is(err, postgres.ErrConfigMismatch) {
		t.Errorf("expected ErrConfigMismatch, got: %v", err)
	}
}

func TestMigrateInvalidPrefix(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	err := postgres.Migrate(context.Background(), db, postgres.Config{Prefix: "x; DROP TABLE y"})
	assert.ErrorIs(t, err, postgres.ErrInvalidPrefix)
}

func TestEncodeMatchesGo(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	cfg := postgres.DefaultConfig()
	require.NoError(t, postgres.Migrate(ctx, db, cfg))

	vectors := []struct {
		in  string
		out string
	}{
		{"AB", "BB8"},
		{"Hello!!", "%69 VD92EX0"},
		{"base-45", "UJCLQE7W581"},
		{"ietf!", "QED8WEX0"},
		{"", ""},
	}
	for _, v := range vectors {
		got, err := postgres.Encode(ctx, db, cfg, []byte(v.in))
		require.NoError(t, err)
		assert.Equal(t, v.out, got, "%s(%q)", cfg.EncodeFunc(), v.in)

		dec, err := postgres.Decode(ctx, db, cfg, v.out)
		require.NoError(t, err)
		assert.True(t, bytes.Equal([]byte(v.in), dec), "%s(%q) = %q", cfg.DecodeFunc(), v.out, dec)
	}

	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(255 - i)
	}
	for _, n := range []int{1, 2, 3, 255, 256} {
		got, err := postgres.Encode(ctx, db, cfg, all[:n])
		require.NoError(t, err)
		require.Equal(t, base45.EncodeToString(all[:n]), got)

		dec, err := postgres.Decode(ctx, db, cfg, got)
		require.NoError(t, err)
		require.Equal(t, all[:n], dec)
	}
}

func TestDecodeErrors(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	cfg := postgres.DefaultConfig()
	require.NoError(t, postgres.Migrate(ctx, db, cfg))

	tests := []struct {
		in   string
		want error
	}{
		{"a", base45.ErrInvalidCharacter},
		{"BBé", base45.ErrInvalidCharacter},
		{"BB8B", base45.ErrInvalidLength},
		{"GGW", base45.ErrInvalidGroup},
		{"BB8::", base45.ErrInvalidGroup},
	}
	for _, tt := range tests {
		_, err := postgres.Decode(ctx, db, cfg, tt.in)
		assert.ErrorIs(t, err, tt.want, "Decode(%q)", tt.in)
	}
}

func TestDecodeLax(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	cfg := postgres.Config{Prefix: "b45", Strict: false}
	require.NoError(t, postgres.Migrate(ctx, db, cfg))

	for _, s := range []string{"GGW", ":::", "BB8::"} {
		want, err := base45.DecodeString(s)
		require.NoError(t, err)

		got, err := postgres.Decode(ctx, db, cfg, s)
		require.NoError(t, err)
		assert.Equal(t, want, got, "Decode(%q)", s)
	}
}

func TestDataColumn(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	cfg := postgres.DefaultConfig()
	require.NoError(t, postgres.Migrate(ctx, db, cfg))

	_, err := db.ExecContext(ctx, `CREATE TABLE certs (id serial PRIMARY KEY, payload text, raw bytea)`)
	require.NoError(t, err)

	payload := base45.Data("2021 Digital Green Certificates for travel")
	_, err = db.ExecContext(ctx, `INSERT INTO certs (payload, raw) VALUES ($1, `+cfg.DecodeFunc()+`($1))`, payload)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO certs (payload, raw) VALUES ($1, NULL)`, base45.NullData{})
	require.NoError(t, err)

	var got base45.Data
	var raw []byte
	require.NoError(t, db.QueryRowContext(ctx, `SELECT payload, raw FROM certs WHERE id = 1`).Scan(&got, &raw))
	assert.Equal(t, payload, got)
	assert.Equal(t, []byte(payload), raw)

	var null base45.NullData
	require.NoError(t, db.QueryRowContext(ctx, `SELECT payload FROM certs WHERE id = 2`).Scan(&null))
	assert.False(t, null.Valid)
}
