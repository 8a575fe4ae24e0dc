package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	Port             string
	DatabaseUser     string
	DatabasePassword string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseSSLMode  string
	EmailAPIKey      string // sendgrid API key
	NoReplyEmail     string // used for transactional emails
	SessionKey       []byte
	JwtSigningKey    []byte
	SessionMaxAge    time.Duration
	Env              string // either prod or dev, will disable https and few other bits
	MachineToken     string
	SentryDSN        string
	SiteName         string
	SiteHost         string
	URLProtocol      string
	JobsPerFeed      int // configures how many open jobs are returned by the public listing and rss feed
	OTPTTL           time.Duration
	CMSAPIURL        string         // wordpress posts endpoint, e.g. https://cms.example.com/wp-json/wp/v2/posts
	CMSCacheTTL      time.Duration  // how long cms responses are served from memory
	CMSCategories    map[string]int // blog category slug to wordpress category id
	CMSPostsPerPage  int
	BcryptCost       int
}

// DefaultCMSCategories maps the blog sections to their wordpress category ids
func DefaultCMSCategories() map[string]int {
	return map[string]int{
		"internship":       5,
		"walk-in-drive":    4,
		"resources":        13,
		"remote":           3,
		"off-campus-drive": 2,
	}
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" {
		return Config{}, fmt.Errorf("EMAIL_API_KEY cannot be empty")
	}
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKey)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	machineToken := os.Getenv("MACHINE_TOKEN")
	if machineToken == "" {
		return Config{}, fmt.Errorf("MACHINE_TOKEN cannot be empty")
	}
	cmsAPIURL := os.Getenv("CMS_API_URL")
	if cmsAPIURL == "" {
		return Config{}, fmt.Errorf("CMS_API_URL cannot be empty")
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		siteName = "JobBase"
	}
	siteHost := os.Getenv("SITE_HOST")
	if siteHost == "" {
		siteHost = "localhost:" + port
	}
	jobsPerFeed, err := intFromEnv("JOBS_PER_FEED", 20)
	if err != nil {
		return Config{}, err
	}
	cmsCacheTTLSeconds, err := intFromEnv("CMS_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	otpTTLMinutes, err := intFromEnv("OTP_TTL_MINUTES", 10)
	if err != nil {
		return Config{}, err
	}
	sessionMaxAgeDays, err := intFromEnv("SESSION_MAX_AGE_DAYS", 7)
	if err != nil {
		return Config{}, err
	}
	urlProtocol := "http://"
	if !strings.EqualFold(env, "dev") {
		urlProtocol = "https://"
	}

	return Config{
		Port:             port,
		DatabaseUser:     databaseUser,
		DatabasePassword: databasePassword,
		DatabaseHost:     databaseHost,
		DatabasePort:     databasePort,
		DatabaseName:     databaseName,
		DatabaseSSLMode:  databaseSSLMode,
		EmailAPIKey:      emailAPIKey,
		NoReplyEmail:     noReplyEmail,
		SessionKey:       sessionKeyBytes,
		JwtSigningKey:    jwtSigningKeyBytes,
		SessionMaxAge:    time.Duration(sessionMaxAgeDays) * 24 * time.Hour,
		Env:              env,
		MachineToken:     machineToken,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SiteName:         siteName,
		SiteHost:         siteHost,
		URLProtocol:      urlProtocol,
		JobsPerFeed:      jobsPerFeed,
		OTPTTL:           time.Duration(otpTTLMinutes) * time.Minute,
		CMSAPIURL:        cmsAPIURL,
		CMSCacheTTL:      time.Duration(cmsCacheTTLSeconds) * time.Second,
		CMSCategories:    DefaultCMSCategories(),
		CMSPostsPerPage:  30,
		BcryptCost:       10,
	}, nil
}

func intFromEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "could not convert %s to int", name)
	}
	return n, nil
}
