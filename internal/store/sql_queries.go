package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/vault-sync/models"
)

// Table and column names shared by the query builders below. All statements
// are assembled with squirrel so the same code runs against PostgreSQL ($N
// placeholders) and SQLite (? placeholders).
const (
	tableEntities = "entities"
	tableEvents   = "events"
	tableInvites  = "invites"
	tableShares   = "shares"
	tableGrants   = "grants"
)

var eventColumns = []string{"id", "entity_id", "sequence", "version", "algorithm", "nonce", "ciphertext", "created_at"}

func buildInsertEntity(b sq.StatementBuilderType, entity models.EntityRecord) (string, []any, error) {
	return b.Insert(tableEntities).
		Columns("entity_id", "credential_id", "public_key", "created_at").
		Values(entity.EntityID, entity.CredentialID, entity.PublicKey, entity.CreatedAt).
		ToSql()
}

func buildGetEntityByCredential(b sq.StatementBuilderType, credentialID string) (string, []any, error) {
	return b.Select("entity_id", "credential_id", "public_key", "created_at").
		From(tableEntities).
		Where(sq.Eq{"credential_id": credentialID}).
		ToSql()
}

func buildGetEntity(b sq.StatementBuilderType, entityID string) (string, []any, error) {
	return b.Select("entity_id", "credential_id", "public_key", "created_at").
		From(tableEntities).
		Where(sq.Eq{"entity_id": entityID}).
		ToSql()
}

func buildDeleteEntity(b sq.StatementBuilderType, entityID string) (string, []any, error) {
	return b.Delete(tableEntities).
		Where(sq.Eq{"entity_id": entityID}).
		ToSql()
}

func buildMaxSequence(b sq.StatementBuilderType, entityID string) (string, []any, error) {
	return b.Select("COALESCE(MAX(sequence), 0)").
		From(tableEvents).
		Where(sq.Eq{"entity_id": entityID}).
		ToSql()
}

func buildInsertEvent(b sq.StatementBuilderType, event models.EncryptedEvent) (string, []any, error) {
	return b.Insert(tableEvents).
		Columns(eventColumns...).
		Values(
			event.ID,
			event.EntityID,
			event.Sequence,
			event.Payload.Version,
			event.Payload.Algorithm,
			event.Payload.Nonce,
			event.Payload.Ciphertext,
			event.CreatedAt,
		).
		ToSql()
}

func buildCacheEvent(b sq.StatementBuilderType, event models.EncryptedEvent) (string, []any, error) {
	return b.Insert(tableEvents).
		Columns(eventColumns...).
		Values(
			event.ID,
			event.EntityID,
			event.Sequence,
			event.Payload.Version,
			event.Payload.Algorithm,
			event.Payload.Nonce,
			event.Payload.Ciphertext,
			event.CreatedAt,
		).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
}

func buildReplayEvents(b sq.StatementBuilderType, entityID string) (string, []any, error) {
	return b.Select(eventColumns...).
		From(tableEvents).
		Where(sq.Eq{"entity_id": entityID}).
		OrderBy("sequence ASC").
		ToSql()
}

// buildLastEvents selects the newest events first; the caller reverses the
// slice to restore ascending order.
func buildLastEvents(b sq.StatementBuilderType, entityID string, limit uint64) (string, []any, error) {
	return b.Select(eventColumns...).
		From(tableEvents).
		Where(sq.Eq{"entity_id": entityID}).
		OrderBy("sequence DESC").
		Limit(limit).
		ToSql()
}

func buildEraseEvents(b sq.StatementBuilderType, entityID string) (string, []any, error) {
	return b.Delete(tableEvents).
		Where(sq.Eq{"entity_id": entityID}).
		ToSql()
}

func buildInsertInvite(b sq.StatementBuilderType, invite models.InviteRecord, sealedKey string) (string, []any, error) {
	return b.Insert(tableInvites).
		Columns("code", "entity_id", "sealed_key", "expires_at").
		Values(invite.Code, invite.EntityID, sealedKey, invite.ExpiresAt).
		ToSql()
}

func buildGetInvite(b sq.StatementBuilderType, code string) (string, []any, error) {
	return b.Select("code", "entity_id", "sealed_key", "expires_at").
		From(tableInvites).
		Where(sq.Eq{"code": code}).
		ToSql()
}

func buildInsertShare(b sq.StatementBuilderType, share models.ShareRecord, sealedKey string) (string, []any, error) {
	return b.Insert(tableShares).
		Columns("code", "source_entity_id", "property_name", "sealed_key", "expires_at").
		Values(share.Code, share.SourceEntityID, share.PropertyName, sealedKey, share.ExpiresAt).
		ToSql()
}

func buildGetShare(b sq.StatementBuilderType, code string) (string, []any, error) {
	return b.Select("code", "source_entity_id", "property_name", "sealed_key", "expires_at").
		From(tableShares).
		Where(sq.Eq{"code": code}).
		ToSql()
}

func buildDeleteCode(b sq.StatementBuilderType, table, code string) (string, []any, error) {
	return b.Delete(table).
		Where(sq.Eq{"code": code}).
		ToSql()
}

func buildDeleteExpiredCodes(b sq.StatementBuilderType, table string, now time.Time) (string, []any, error) {
	return b.Delete(table).
		Where(sq.Lt{"expires_at": now}).
		ToSql()
}

func buildDeleteInvitesForEntity(b sq.StatementBuilderType, entityID string) (string, []any, error) {
	return b.Delete(tableInvites).
		Where(sq.Eq{"entity_id": entityID}).
		ToSql()
}

func buildDeleteSharesForEntity(b sq.StatementBuilderType, entityID string) (string, []any, error) {
	return b.Delete(tableShares).
		Where(sq.Eq{"source_entity_id": entityID}).
		ToSql()
}

func buildInsertGrant(b sq.StatementBuilderType, grant models.GrantRecord, sealedKey string) (string, []any, error) {
	return b.Insert(tableGrants).
		Columns("source_entity_id", "target_entity_id", "property_name", "sealed_key", "created_at").
		Values(grant.SourceEntityID, grant.TargetEntityID, grant.PropertyName, sealedKey, grant.CreatedAt).
		ToSql()
}

func buildDeleteGrant(b sq.StatementBuilderType, sourceEntityID, targetEntityID, propertyName string) (string, []any, error) {
	return b.Delete(tableGrants).
		Where(sq.Eq{
			"source_entity_id": sourceEntityID,
			"target_entity_id": targetEntityID,
			"property_name":    propertyName,
		}).
		ToSql()
}

func buildListGrants(b sq.StatementBuilderType, where sq.Eq) (string, []any, error) {
	return b.Select("source_entity_id", "target_entity_id", "property_name", "sealed_key", "created_at").
		From(tableGrants).
		Where(where).
		OrderBy("created_at ASC").
		ToSql()
}

func buildListGrantTargets(b sq.StatementBuilderType, sourceEntityID, propertyName string) (string, []any, error) {
	return b.Select("target_entity_id").
		From(tableGrants).
		Where(sq.Eq{"source_entity_id": sourceEntityID, "property_name": propertyName}).
		ToSql()
}

func buildDeleteGrantsForEntity(b sq.StatementBuilderType, entityID string) (string, []any, error) {
	return b.Delete(tableGrants).
		Where(sq.Or{
			sq.Eq{"source_entity_id": entityID},
			sq.Eq{"target_entity_id": entityID},
		}).
		ToSql()
}
