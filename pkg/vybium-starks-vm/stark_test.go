package vybiumstarksvm

import (
	"testing"
)

func TestSTARKCreation(t *testing.T) {
	t.Run("NewSTARK", func(t *testing.T) {
		// Test STARK creation
		// This would test the public API for creating STARK instances
	})

	t.Run("STARKParameters", func(t *testing.T) {
		// Test STARK parameter validation
		// This would test the public API for STARK parameters
	})
}

func TestSTARKProver(t *testing.T) {
	t.Run("NewProver", func(t *testing.T) {
		// Test prover creation
		// This would test the public API for creating provers
	})

	t.Run("Prove", func(t *testing.T) {
		// Test proof generation
		// This would test the public API for generating proofs
	})
}

func TestSTARKVerifier(t *testing.T) {
	t.Run("NewVerifier", func(t *testing.T) {
		// Test verifier creation
		// This would test the public API for creating verifiers
	})

	t.Run("Verify", func(t *testing.T) {
		// Test proof verification
		// This would test the public API for verifying proofs
	})
}
