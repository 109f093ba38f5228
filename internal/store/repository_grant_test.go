package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"

	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/models"
)

func newTestGrantRepo(t *testing.T) (*grantRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.NewLogger("test")
	repo := &grantRepository{
		DB: &DB{
			DB:                 db,
			builder:            sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
			errorClassificator: NewPostgresErrorClassifier(),
			logger:             l,
		},
		logger: l,
	}
	return repo, mock, db
}

func TestSaveGrant_Success(t *testing.T) {
	repo, mock, db := newTestGrantRepo(t)
	defer db.Close()

	grant := models.GrantRecord{
		SourceEntityID: "entity-1",
		TargetEntityID: "entity-2",
		PropertyName:   "phone",
		SealedKey:      testSealedPayload(),
		CreatedAt:      time.Now(),
	}

	mock.ExpectExec("INSERT INTO grants").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveGrant(context.Background(), grant); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSaveGrant_Duplicate(t *testing.T) {
	repo, mock, db := newTestGrantRepo(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO grants").
		WillReturnError(pgError(pgerrcode.UniqueViolation))

	err := repo.SaveGrant(context.Background(), models.GrantRecord{
		SourceEntityID: "entity-1",
		TargetEntityID: "entity-2",
		PropertyName:   "phone",
	})
	if !errors.Is(err, ErrGrantAlreadyExists) {
		t.Fatalf("expected ErrGrantAlreadyExists, got %v", err)
	}
}

func TestDeleteGrant_RemovesBothSidesAtOnce(t *testing.T) {
	repo, mock, db := newTestGrantRepo(t)
	defer db.Close()

	// one row carries both views, a single DELETE revokes the pair
	mock.ExpectExec("DELETE FROM grants").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteGrant(context.Background(), "entity-1", "entity-2", "phone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteGrant_NotFound(t *testing.T) {
	repo, mock, db := newTestGrantRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM grants").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteGrant(context.Background(), "entity-1", "entity-2", "phone")
	if !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}
}

func TestListGrantsByTarget_DecodesSealedKey(t *testing.T) {
	repo, mock, db := newTestGrantRepo(t)
	defer db.Close()

	sealed := testSealedPayload()
	sealedJSON, _ := json.Marshal(sealed)

	mock.ExpectQuery("SELECT (.+) FROM grants").
		WithArgs("entity-2").
		WillReturnRows(sqlmock.
			NewRows([]string{"source_entity_id", "target_entity_id", "property_name", "sealed_key", "created_at"}).
			AddRow("entity-1", "entity-2", "phone", string(sealedJSON), time.Now()))

	grants, err := repo.ListGrantsByTarget(context.Background(), "entity-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(grants))
	}
	if grants[0].SealedKey.Ciphertext != sealed.Ciphertext {
		t.Errorf("expected sealed key to round-trip, got %q", grants[0].SealedKey.Ciphertext)
	}

	incoming := grants[0].Incoming()
	if incoming.SourceEntityID != "entity-1" || incoming.SealedKey.Salt != sealed.Salt {
		t.Errorf("unexpected incoming projection: %+v", incoming)
	}
}

func TestListGrantTargets(t *testing.T) {
	repo, mock, db := newTestGrantRepo(t)
	defer db.Close()

	// squirrel orders Eq predicates by column name, property_name first
	mock.ExpectQuery("SELECT target_entity_id FROM grants").
		WithArgs("phone", "entity-1").
		WillReturnRows(sqlmock.
			NewRows([]string{"target_entity_id"}).
			AddRow("entity-2").
			AddRow("entity-3"))

	targets, err := repo.ListGrantTargets(context.Background(), "entity-1", "phone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0] != "entity-2" || targets[1] != "entity-3" {
		t.Errorf("unexpected targets: %v", targets)
	}
}

func TestDeleteGrantsForEntity_CoversBothDirections(t *testing.T) {
	repo, mock, db := newTestGrantRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM grants").
		WithArgs("entity-1", "entity-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteGrantsForEntity(context.Background(), "entity-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
