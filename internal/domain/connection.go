package domain

import "time"

// SecurityProtocol is the transport security of a broker connection.
type SecurityProtocol string

const (
	SecurityProtocolPlaintext SecurityProtocol = "PLAINTEXT"
	SecurityProtocolSASLPlain SecurityProtocol = "SASL_PLAINTEXT"
	SecurityProtocolSASLSSL   SecurityProtocol = "SASL_SSL"
	SecurityProtocolSSL       SecurityProtocol = "SSL"
)

// SASLMechanism selects the SASL authentication mechanism.
type SASLMechanism string

const (
	SASLMechanismPlain       SASLMechanism = "PLAIN"
	SASLMechanismScramSHA256 SASLMechanism = "SCRAM-SHA-256"
	SASLMechanismScramSHA512 SASLMechanism = "SCRAM-SHA-512"
)

// SecurityConfig holds the authentication settings of a connection.
type SecurityConfig struct {
	Protocol      SecurityProtocol
	SASLMechanism SASLMechanism
	Username      string
	Password      string
}

// Connection is a saved broker connection. BrokersList is a comma-separated
// host:port list as entered by the user. A zero Timeout falls back to the
// application default.
type Connection struct {
	ID          uint
	Name        string
	BrokersList string
	Security    SecurityConfig
	Timeout     time.Duration
}
