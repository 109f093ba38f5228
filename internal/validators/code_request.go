package validators

import "github.com/MKhiriev/vault-sync/models"

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate or internal validation methods
// to restrict validation to a subset of fields (field-level scoping).
const (
	// FieldCode targets the one-time human-readable lookup code.
	FieldCode = "code"

	// FieldEntityID targets the owning entity identifier of an invite.
	FieldEntityID = "entity_id"

	// FieldSourceEntityID targets the sharing side of a share or grant.
	FieldSourceEntityID = "source_entity_id"

	// FieldTargetEntityID targets the receiving side of a grant.
	FieldTargetEntityID = "target_entity_id"

	// FieldPropertyName targets the shared property scope of a share or grant.
	FieldPropertyName = "property_name"

	// FieldSealedKey targets the code-sealed key material.
	FieldSealedKey = "sealed_key"

	// FieldExpiresAt targets the lazy-checked expiry deadline of a code.
	FieldExpiresAt = "expires_at"
)

var allowedSealAlgorithms = []string{
	models.AlgorithmAESGCM,
}

var allowedKDFAlgorithms = []string{
	models.KDFArgon2id,
}
