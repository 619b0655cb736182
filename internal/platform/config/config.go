package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process level configuration for the confidentiality engine.
type Server struct {
	Addr string

	// PseudonymSalt keys the deterministic identifier mapper. Each deployment
	// must override it so external report IDs differ across environments.
	PseudonymSalt string

	// ConsentTTL is the default lifetime applied to grants without an
	// explicit duration.
	ConsentTTL time.Duration

	// PostgresURL enables the durable consent event store when set.
	PostgresURL string

	// RedisAddr enables the consent ledger read model when set.
	RedisAddr string

	// KafkaBrokers and AuditTopic configure the external audit sink.
	KafkaBrokers []string
	AuditTopic   string

	// SigningKey verifies the platform's access tokens.
	SigningKey string
}

const (
	defaultConsentTTL = 365 * 24 * time.Hour // 1 year
	defaultAuditTopic = "haven.audit.decisions"

	// Development-only salt. Production deployments must set PSEUDONYM_SALT.
	devPseudonymSalt = "haven-hmis-personal-id-salt-2024"

	// Development-only key. Production deployments must set SIGNING_KEY.
	devSigningKey = "haven-dev-signing-key"
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("HAVEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	salt := os.Getenv("PSEUDONYM_SALT")
	if salt == "" {
		salt = devPseudonymSalt
	}

	consentTTL := defaultConsentTTL
	if v := os.Getenv("CONSENT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			consentTTL = d
		}
	}

	topic := os.Getenv("AUDIT_TOPIC")
	if topic == "" {
		topic = defaultAuditTopic
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}

	signingKey := os.Getenv("SIGNING_KEY")
	if signingKey == "" {
		signingKey = devSigningKey
	}

	return Server{
		Addr:          addr,
		PseudonymSalt: salt,
		ConsentTTL:    consentTTL,
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBrokers:  brokers,
		AuditTopic:    topic,
		SigningKey:    signingKey,
	}
}
