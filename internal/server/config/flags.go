package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/chatauth/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-m", "-r", "-k", "-env", "-client"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-m string   public base URL for stored avatars
//	-r string   Redis URL for the mail queue
//	-k string   Resend API key
//	-env string development or production
//	-client string SPA origin
//
// Args are filtered with flagx.FilterArgs first so -c and -env-file,
// which are read elsewhere, do not trip the parser.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	validity := fs.Int("t", int(config.TokenValidity.Minutes()), "token validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicBaseURL, "m", config.S3PublicBaseURL, "public base URL for avatars")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL for the mail queue")
	fs.StringVar(&config.ResendAPIKey, "k", config.ResendAPIKey, "Resend API key")
	fs.StringVar(&config.Env, "env", config.Env, "environment mode")
	fs.StringVar(&config.ClientURL, "client", config.ClientURL, "client URL")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidity = time.Duration(*validity) * time.Minute
		}
	})
	return nil
}
