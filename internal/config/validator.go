package config

import (
	"fmt"
	"strings"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
)

// Validator provides connection validation utilities
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConnection checks the required fields of a connection before any
// broker call is attempted.
func (v *Validator) ValidateConnection(conn *domain.Connection) error {
	if conn == nil {
		return fmt.Errorf("connection must be specified")
	}

	if strings.TrimSpace(conn.BrokersList) == "" {
		return fmt.Errorf("connection brokers list must be specified")
	}

	if err := v.ValidateSecurityProtocol(string(conn.Security.Protocol)); err != nil {
		return err
	}

	if conn.Security.Protocol == domain.SecurityProtocolSASLPlain ||
		conn.Security.Protocol == domain.SecurityProtocolSASLSSL {
		if err := v.ValidateSASLMechanism(string(conn.Security.SASLMechanism)); err != nil {
			return err
		}
		if conn.Security.Username == "" {
			return fmt.Errorf("SASL username must be specified for %s", conn.Security.Protocol)
		}
	}

	return nil
}

// ValidateTopicName validates a topic name
func (v *Validator) ValidateTopicName(name string) error {
	if name == "" {
		return fmt.Errorf("topic name cannot be empty")
	}

	invalidChars := []string{"/", "\\", "\x00"}
	for _, char := range invalidChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("topic name contains invalid character: %s", char)
		}
	}

	return nil
}

// ValidateSecurityProtocol validates a Kafka security protocol
func (v *Validator) ValidateSecurityProtocol(protocol string) error {
	if protocol == "" {
		// Defaults to PLAINTEXT
		return nil
	}

	validProtocols := []string{"PLAINTEXT", "SASL_PLAINTEXT", "SASL_SSL", "SSL"}

	for _, valid := range validProtocols {
		if protocol == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid security protocol: %s. Valid protocols: %v", protocol, validProtocols)
}

// ValidateSASLMechanism validates a SASL mechanism
func (v *Validator) ValidateSASLMechanism(mechanism string) error {
	validMechanisms := []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"}

	for _, valid := range validMechanisms {
		if mechanism == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid SASL mechanism: %s. Valid mechanisms: %v", mechanism, validMechanisms)
}
