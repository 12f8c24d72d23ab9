package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/identity/internal/flagx"
	"github.com/dmitrijs2005/identity/internal/timex"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-t duration  access token ttl ("1 hour", "15m")
//	-r duration  refresh token ttl ("1 week")
//	-p string    private key passphrase
//	-k string    key storage: file or s3
//	-admin bool  seed the admin user on startup
//	-s string    store driver: postgres, mongo or memory
//	-d string    PostgreSQL DSN
//	-m string    MongoDB URI
//	-n string    MongoDB database
//
// Args are filtered with flagx.FilterArgs first, so -c/-config and unknown
// flags are ignored here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-t", "-r", "-p", "-k", "-admin", "-s", "-d", "-m", "-n"})

	fs := flag.NewFlagSet("identity", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Func("t", "access token ttl", durationFlag(&config.AccessTokenTTL))
	fs.Func("r", "refresh token ttl", durationFlag(&config.RefreshTokenTTL))
	fs.StringVar(&config.KeyPassphrase, "p", config.KeyPassphrase, "private key passphrase")
	fs.StringVar(&config.KeyStorage, "k", config.KeyStorage, "key storage (file|s3)")
	fs.BoolVar(&config.InitAdmin, "admin", config.InitAdmin, "seed the admin user")
	fs.StringVar(&config.StoreDriver, "s", config.StoreDriver, "store driver (postgres|mongo|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "mongo URI")
	fs.StringVar(&config.MongoDatabase, "n", config.MongoDatabase, "mongo database")

	return fs.Parse(args)
}

func durationFlag(dst *time.Duration) func(string) error {
	return func(s string) error {
		d, err := timex.ParseDuration(s)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
