// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"testing"

	"github.com/MKhiriev/vault-sync/internal/crypto"
	"github.com/MKhiriev/vault-sync/internal/logger"
	"github.com/MKhiriev/vault-sync/internal/mock"
	"github.com/MKhiriev/vault-sync/internal/workers"
	"github.com/MKhiriev/vault-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestListShares_DelegatesToAdapter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	want := models.ShareList{
		Outgoing: []models.OutgoingShare{{SourceEntityID: "entity-1", TargetEntityID: "entity-2", PropertyName: "phone"}},
	}

	adapterMock := mock.NewMockServerAdapter(ctrl)
	adapterMock.EXPECT().ListShares(gomock.Any()).Return(want, nil)

	s := NewSession(adapterMock, crypto.NewKeyringWithCost(1, 8*1024), crypto.NewEventCodec(), workers.NewKDFPool(1), logger.Nop())

	got, err := s.ListShares(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRevokeShare_DelegatesToAdapter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := models.RevokeShareRequest{PropertyName: "phone", TargetEntityID: "entity-2"}

	adapterMock := mock.NewMockServerAdapter(ctrl)
	adapterMock.EXPECT().RevokeShare(gomock.Any(), req).Return(true, nil)

	s := NewSession(adapterMock, crypto.NewKeyringWithCost(1, 8*1024), crypto.NewEventCodec(), workers.NewKDFPool(1), logger.Nop())

	removed, err := s.RevokeShare(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, removed)
}
