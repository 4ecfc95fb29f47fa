package config

import (
	"flag"
	"os"
	"time"

	"github.com/polarmc/yggdrasil/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-w int      bcrypt cost
//	-t int      access token validity, minutes
//	-j int      game session validity (join window), minutes
//	-i int      session sweep interval, seconds
//	-o int      store call timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-x string   public texture base URL
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config loader.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-w", "-t", "-j", "-i", "-o", "-u", "-p", "-b", "-g", "-e", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.BcryptCost, "w", config.BcryptCost, "bcrypt cost")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	gameSessionValidity := fs.Int("j", int(config.GameSessionValidityDuration.Minutes()), "game session validity (in minutes)")
	sweepInterval := fs.Int("i", int(config.SessionSweepInterval.Seconds()), "session sweep interval (in seconds)")
	storeTimeout := fs.Int("o", int(config.StoreTimeout.Seconds()), "store call timeout (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.TextureBaseURL, "x", config.TextureBaseURL, "public texture base URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.GameSessionValidityDuration = time.Duration(*gameSessionValidity) * time.Minute
	config.SessionSweepInterval = time.Duration(*sweepInterval) * time.Second
	config.StoreTimeout = time.Duration(*storeTimeout) * time.Second
}
