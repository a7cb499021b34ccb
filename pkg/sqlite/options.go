package sqlite

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"sqlitekit/pkg/dberr"
)

var validate = validator.New()

// Options contains tuning knobs for a DB handle. The number of open
// connections is not configurable: a handle owns exactly one logical
// connection (see package doc).
type Options struct {
	// ConnMaxLifetime is the maximum lifetime of the underlying connection.
	ConnMaxLifetime time.Duration `validate:"min=0"`
	// ConnMaxIdleTime is the maximum idle time of the underlying connection.
	ConnMaxIdleTime time.Duration `validate:"min=0"`
	// PingTimeout bounds the connectivity check performed by Open.
	PingTimeout time.Duration `validate:"gt=0"`
	// WALMode enables write-ahead logging. Ignored for read-only and
	// in-memory databases.
	WALMode bool
	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool
	// BusyTimeout is how long the engine waits on a locked database before
	// reporting SQLITE_BUSY.
	BusyTimeout time.Duration `validate:"min=0"`
	// RetryAttempts is the number of attempts made to begin a transaction
	// when the database is locked by another connection.
	RetryAttempts int `validate:"min=1"`
}

// DefaultOptions returns settings optimized for embedded use.
func DefaultOptions() Options {
	return Options{
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		PingTimeout:     5 * time.Second,
		WALMode:         true,
		ForeignKeys:     true,
		BusyTimeout:     5 * time.Second,
		RetryAttempts:   3,
	}
}

// OptionsFromEnv reads options from SQLITEKIT_* environment variables and an
// optional .env file, starting from DefaultOptions. Unset variables keep
// their defaults; malformed values fail with dberr.ErrInvalidArgument.
//
// Recognized variables: SQLITEKIT_WAL, SQLITEKIT_FOREIGN_KEYS (booleans),
// SQLITEKIT_BUSY_TIMEOUT, SQLITEKIT_PING_TIMEOUT (Go durations),
// SQLITEKIT_RETRY_ATTEMPTS (integer).
func OptionsFromEnv() (Options, error) {
	_ = godotenv.Load()

	o := DefaultOptions()

	var err error
	if o.WALMode, err = getenvBool("SQLITEKIT_WAL", o.WALMode); err != nil {
		return Options{}, err
	}
	if o.ForeignKeys, err = getenvBool("SQLITEKIT_FOREIGN_KEYS", o.ForeignKeys); err != nil {
		return Options{}, err
	}
	if o.BusyTimeout, err = getenvDuration("SQLITEKIT_BUSY_TIMEOUT", o.BusyTimeout); err != nil {
		return Options{}, err
	}
	if o.PingTimeout, err = getenvDuration("SQLITEKIT_PING_TIMEOUT", o.PingTimeout); err != nil {
		return Options{}, err
	}
	if v := os.Getenv("SQLITEKIT_RETRY_ATTEMPTS"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return Options{}, dberr.MarkKind(dberr.Wrapf(convErr, "SQLITEKIT_RETRY_ATTEMPTS=%q", v), dberr.KindInvalidArgument)
		}
		o.RetryAttempts = n
	}

	if err := validate.Struct(o); err != nil {
		return Options{}, dberr.MarkKind(dberr.Wrap(err, "options"), dberr.KindInvalidArgument)
	}
	return o, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, dberr.MarkKind(dberr.Wrapf(err, "%s=%q", key, v), dberr.KindInvalidArgument)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, dberr.MarkKind(dberr.Wrapf(err, "%s=%q", key, v), dberr.KindInvalidArgument)
	}
	return d, nil
}
