// Package postgres installs the chunked Base45 codec as PL/pgSQL functions
// so that the database can produce and read the same text as the Go
// package.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/paraglidehq/base45"
)

// Config controls the names and decoding strictness of the installed
// functions.
type Config struct {
	// Prefix names the functions <Prefix>_encode and <Prefix>_decode.
	Prefix string
	// Strict makes <Prefix>_decode reject out-of-range groups instead of
	// truncating them.
	Strict bool
}

// DefaultConfig returns the default Base45 configuration.
func DefaultConfig() Config {
	return Config{
		Prefix: "base45",
		Strict: true,
	}
}

func (c Config) EncodeFunc() string { return c.Prefix + "_encode" }
func (c Config) DecodeFunc() string { return c.Prefix + "_decode" }

var (
	ErrConfigMismatch = errors.New("base45: database config does not match application config")
	ErrInvalidPrefix  = errors.New("base45: prefix must be a lowercase SQL identifier")
)

// SQLSTATE codes raised by the installed functions.
const (
	codeInvalidCharacter pq.ErrorCode = "22021" // character_not_in_repertoire
	codeInvalidLength    pq.ErrorCode = "22026" // string_data_length_mismatch
	codeInvalidGroup     pq.ErrorCode = "22003" // numeric_value_out_of_range
)

func (c Config) validate() error {
	if c.Prefix == "" || len(c.Prefix) > 48 {
		return ErrInvalidPrefix
	}
	for i := 0; i < len(c.Prefix); i++ {
		ch := c.Prefix[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch == '_':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return ErrInvalidPrefix
		}
	}
	return nil
}

// Migrate runs the idempotent Base45 migration with the given configuration.
// If the database already has a different configuration, returns ErrConfigMismatch.
func Migrate(ctx context.Context, db *sql.DB, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	// Create config table
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _base45_config (
			id int PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			prefix text NOT NULL,
			strict boolean NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("base45: create config table: %w", err)
	}

	// Check existing config
	stored, err := GetConfig(ctx, db)
	if err == nil {
		if stored != cfg {
			return fmt.Errorf("%w: db has prefix=%s strict=%t, app has prefix=%s strict=%t",
				ErrConfigMismatch, stored.Prefix, stored.Strict, cfg.Prefix, cfg.Strict)
		}
	} else if errors.Is(err, sql.ErrNoRows) {
		_, err = db.ExecContext(ctx, `INSERT INTO _base45_config (prefix, strict) VALUES ($1, $2)`,
			cfg.Prefix, cfg.Strict)
		if err != nil {
			return fmt.Errorf("base45: insert config: %w", err)
		}
	} else {
		return fmt.Errorf("base45: read config: %w", err)
	}

	_, err = db.ExecContext(ctx, generateSQL(cfg))
	if err != nil {
		return fmt.Errorf("base45: run migrations: %w", err)
	}

	return nil
}

// GetConfig reads the Base45 configuration from the database.
func GetConfig(ctx context.Context, db *sql.DB) (Config, error) {
	var cfg Config
	err := db.QueryRowContext(ctx, `SELECT prefix, strict FROM _base45_config`).Scan(&cfg.Prefix, &cfg.Strict)
	return cfg, err
}

// Encode runs src through the installed encode function.
func Encode(ctx context.Context, db *sql.DB, cfg Config, src []byte) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	if src == nil {
		src = []byte{}
	}
	var s string
	err := db.QueryRowContext(ctx, "SELECT "+cfg.EncodeFunc()+"($1::bytea)", src).Scan(&s)
	return s, err
}

// Decode runs s through the installed decode function. Codec failures are
// reported with the base45 package's errors.
func Decode(ctx context.Context, db *sql.DB, cfg Config, s string) ([]byte, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	var b []byte
	err := db.QueryRowContext(ctx, "SELECT "+cfg.DecodeFunc()+"($1::text)", s).Scan(&b)
	if err != nil {
		return nil, codecError(err)
	}
	return b, nil
}

func codecError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeInvalidCharacter:
		return fmt.Errorf("%w: %s", base45.ErrInvalidCharacter, pqErr.Message)
	case codeInvalidLength:
		return fmt.Errorf("%w: %s", base45.ErrInvalidLength, pqErr.Message)
	case codeInvalidGroup:
		return fmt.Errorf("%w: %s", base45.ErrInvalidGroup, pqErr.Message)
	default:
		return err
	}
}

func generateSQL(cfg Config) string {
	tripleCheck := "v := v % 65536;"
	pairCheck := "v := v % 256;"
	if cfg.Strict {
		tripleCheck = fmt.Sprintf(`IF v > 65535 THEN
      RAISE EXCEPTION 'base45: group value out of range at offset %%', i - 1 USING ERRCODE = '%s';
    END IF;`, codeInvalidGroup)
		pairCheck = fmt.Sprintf(`IF v > 255 THEN
      RAISE EXCEPTION 'base45: group value out of range at offset %%', i - 1 USING ERRCODE = '%s';
    END IF;`, codeInvalidGroup)
	}

	return fmt.Sprintf(`
-- Chunked Base45: two bytes to three symbols, least significant digit first
CREATE OR REPLACE FUNCTION %[1]s(src bytea)
  RETURNS text
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT LEAKPROOF
  AS $$
DECLARE
  alphabet text := '0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%%*+-./:';
  n int := length(src);
  result text := '';
  v int;
  i int := 0;
BEGIN
  WHILE i + 1 < n LOOP
    v := get_byte(src, i) * 256 + get_byte(src, i + 1);
    result := result
      || substring(alphabet FROM v %% 45 + 1 FOR 1)
      || substring(alphabet FROM v / 45 %% 45 + 1 FOR 1)
      || substring(alphabet FROM v / 2025 + 1 FOR 1);
    i := i + 2;
  END LOOP;
  IF n %% 2 = 1 THEN
    v := get_byte(src, n - 1);
    result := result
      || substring(alphabet FROM v %% 45 + 1 FOR 1)
      || substring(alphabet FROM v / 45 + 1 FOR 1);
  END IF;
  RETURN result;
END;
$$;

CREATE OR REPLACE FUNCTION %[2]s(src text)
  RETURNS bytea
  LANGUAGE plpgsql
  IMMUTABLE PARALLEL SAFE STRICT
  AS $$
DECLARE
  alphabet text := '0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%%*+-./:';
  n int := char_length(src);
  d int[];
  result bytea := ''::bytea;
  p int;
  v int;
  i int;
BEGIN
  FOR i IN 1..n LOOP
    p := position(substring(src FROM i FOR 1) IN alphabet);
    IF p = 0 THEN
      RAISE EXCEPTION 'base45: invalid character %% at offset %%', quote_literal(substring(src FROM i FOR 1)), i - 1
        USING ERRCODE = '%[3]s';
    END IF;
    d[i] := p - 1;
  END LOOP;

  IF n %% 3 = 1 THEN
    RAISE EXCEPTION 'base45: invalid length %%', n USING ERRCODE = '%[4]s';
  END IF;

  i := 1;
  WHILE i + 2 <= n LOOP
    v := d[i] + d[i + 1] * 45 + d[i + 2] * 2025;
    %[5]s
    result := result || decode(lpad(to_hex(v), 4, '0'), 'hex');
    i := i + 3;
  END LOOP;
  IF i < n THEN
    v := d[i] + d[i + 1] * 45;
    %[6]s
    result := result || decode(lpad(to_hex(v), 2, '0'), 'hex');
  END IF;
  RETURN result;
END;
$$;
`,
		cfg.EncodeFunc(),     // encode function name
		cfg.DecodeFunc(),     // decode function name
		codeInvalidCharacter, // SQLSTATE for bad symbols
		codeInvalidLength,    // SQLSTATE for len % 3 == 1
		tripleCheck,          // range handling for triples
		pairCheck,            // range handling for the trailing pair
	)
}
