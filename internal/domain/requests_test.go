package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roomID = "6f1c2f9e-4a43-4d1e-9a57-1f0d8c1b2a01"

func TestCreateTenantRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateTenantRequest
		wantErr bool
	}{
		{"valid", CreateTenantRequest{FullName: "Ada", RoomID: roomID}, false},
		{"missing name", CreateTenantRequest{RoomID: roomID}, true},
		{"blank name", CreateTenantRequest{FullName: "  ", RoomID: roomID}, true},
		{"missing room", CreateTenantRequest{FullName: "Ada"}, true},
		{"bad room id", CreateTenantRequest{FullName: "Ada", RoomID: "room-1"}, true},
		{"bad profile id", CreateTenantRequest{FullName: "Ada", RoomID: roomID, ProfileID: "x"}, true},
		{"bad dob", CreateTenantRequest{FullName: "Ada", RoomID: roomID, DateOfBirth: "01/02/1990"}, true},
		{"future dob", CreateTenantRequest{FullName: "Ada", RoomID: roomID, DateOfBirth: time.Now().AddDate(1, 0, 0).Format(DateLayout)}, true},
		{"bad move in", CreateTenantRequest{FullName: "Ada", RoomID: roomID, MoveInDate: "soon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateTenantRequestTenant(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	req := CreateTenantRequest{FullName: " Ada Lovelace ", RoomID: roomID, DateOfBirth: "1990-12-10"}

	tenant := req.Tenant(now)
	assert.Equal(t, "Ada Lovelace", tenant.FullName)
	assert.True(t, tenant.IsActive)
	require.NotNil(t, tenant.RoomID)
	assert.Equal(t, roomID, *tenant.RoomID)
	require.NotNil(t, tenant.MoveInDate)
	assert.Equal(t, "2026-03-04", tenant.MoveInDate.Format(DateLayout))
	require.NotNil(t, tenant.DateOfBirth)
	assert.Nil(t, tenant.ProfileID)
}

func TestRoomRequestValidate(t *testing.T) {
	assert.NoError(t, RoomRequest{RoomNumber: "101", RoomType: RoomSingle, Price: 400}.Validate())
	assert.Error(t, RoomRequest{RoomType: RoomSingle}.Validate())
	assert.Error(t, RoomRequest{RoomNumber: "101", RoomType: "suite"}.Validate())
	assert.Error(t, RoomRequest{RoomNumber: "101", RoomType: RoomDouble, Price: -1}.Validate())
}

func TestTicketRequests(t *testing.T) {
	assert.NoError(t, CreateTicketRequest{Title: "Leak", RoomID: roomID}.Validate())
	assert.Error(t, CreateTicketRequest{RoomID: roomID}.Validate())
	assert.Error(t, CreateTicketRequest{Title: "Leak"}.Validate())

	assert.NoError(t, UpdateTicketStatusRequest{Status: TicketResolved}.Validate())
	assert.Error(t, UpdateTicketStatusRequest{Status: "closed"}.Validate())
}

func TestCreateProfileRequestValidate(t *testing.T) {
	ok := CreateProfileRequest{Email: "a@example.com", FullName: "A", Role: RoleTenant, Password: "Password123"}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Role = "owner"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Password = "short"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Email = "nope"
	assert.Error(t, bad.Validate())
}

func TestErrorKinds(t *testing.T) {
	err := RoomUnavailable("createTenant", roomID)
	assert.True(t, errors.Is(err, ErrRoomUnavailable))
	assert.Equal(t, "room_unavailable", KindOf(err))

	cause := errors.New(`pq: duplicate key value violates unique constraint "rooms_pkey"`)
	gw := Gateway("createRoom", cause)
	assert.True(t, errors.Is(gw, ErrGateway))
	assert.True(t, errors.Is(gw, cause))
	assert.Equal(t, cause.Error(), gw.Error())

	// already-classified errors pass through unchanged
	nf := NotFound("getRoom", "room")
	assert.Same(t, nf, Gateway("getRoom", nf))
	assert.Equal(t, "room not found", nf.Error())
}
