package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{
		StatusSubmitted, StatusNeighborhood, StatusDistrict,
		StatusRegion, StatusFinalReview, StatusAwarded, StatusRejected,
	} {
		assert.True(t, IsValidStatus(status), status)
	}
	assert.False(t, IsValidStatus("unknown"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus("Submitted"), "status codes are lowercase")
}

func TestIsValidArea(t *testing.T) {
	assert.True(t, IsValidArea("Toshkent"))
	assert.True(t, IsValidArea("Qoraqalpogiston"))
	assert.False(t, IsValidArea("Moscow"))
	assert.False(t, IsValidArea(""))
}

func TestPhoneVerificationIsValid(t *testing.T) {
	v := PhoneVerification{ExpiresAt: time.Now().Add(time.Minute)}
	assert.True(t, v.IsValid())

	v.IsUsed = true
	assert.False(t, v.IsValid(), "used codes are dead even before expiry")

	v = PhoneVerification{ExpiresAt: time.Now().Add(-time.Second)}
	assert.False(t, v.IsValid())
}

func TestPasswordResetCodeIsValid(t *testing.T) {
	c := PasswordResetCode{}
	c.CreatedAt = time.Now().Add(-time.Minute)
	assert.True(t, c.IsValid())

	c.CreatedAt = time.Now().Add(-PasswordResetCodeTTL - time.Second)
	assert.False(t, c.IsValid())
}

func TestNotificationIsRead(t *testing.T) {
	n := Notification{}
	assert.False(t, n.IsRead())

	now := time.Now()
	n.ReadAt = &now
	assert.True(t, n.IsRead())
}

func TestJSONMapValue(t *testing.T) {
	raw, err := JSONMap{"reward_name": "Mard o'g'lon", "count": 2}.Value()
	require.NoError(t, err)

	var m JSONMap
	require.NoError(t, m.Scan(raw))
	assert.Equal(t, "Mard o'g'lon", m["reward_name"])
	assert.Equal(t, float64(2), m["count"])
}

func TestJSONMapValueNil(t *testing.T) {
	var m JSONMap
	raw, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), raw)
}

func TestJSONMapScan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"a":"b"}`)))
	assert.Equal(t, "b", m["a"])

	require.NoError(t, m.Scan(`{"c":"d"}`))
	assert.Equal(t, "d", m["c"])

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)

	assert.Error(t, m.Scan(42))
}

func TestUserFullName(t *testing.T) {
	u := User{FirstName: "Aziz", LastName: "Karimov"}
	assert.Equal(t, "Aziz Karimov", u.FullName())
}
