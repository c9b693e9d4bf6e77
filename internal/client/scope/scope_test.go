package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ordersync/internal/models"
)

func TestKey_StringParseRoundTrip(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Device("dev-1"), "device:dev-1"},
		{Email("Ann@Example.com"), "email:ann@example.com"},
		{Guest, "guest"},
		{All, "all"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.String())
			got, err := Parse(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.key, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "device:", "phone:123", "nonsense"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidKey, s)
	}
}

func TestResolveAndCandidates(t *testing.T) {
	anon := models.Identity{}
	assert.Equal(t, Guest, Resolve(anon))
	assert.Equal(t, []Key{Guest}, Candidates(anon))

	dev := models.Identity{DeviceID: "dev-1"}
	assert.Equal(t, Device("dev-1"), Resolve(dev))
	assert.Equal(t, []Key{Device("dev-1"), Guest}, Candidates(dev))

	user := models.Identity{DeviceID: "dev-1", User: &models.AuthenticatedUser{Email: "Ann@example.com"}}
	assert.Equal(t, Device("dev-1"), Resolve(user))
	assert.Equal(t, []Key{Device("dev-1"), Email("ann@example.com"), Guest}, Candidates(user))
}

func TestKey_Matches(t *testing.T) {
	owned := models.Order{ID: "1", OwnerDeviceID: "dev-1", Contact: models.CustomerContact{Email: "ann@example.com"}}
	legacy := models.Order{ID: "2", Contact: models.CustomerContact{Email: "ANN@example.com"}}
	anon := models.Order{ID: "3"}

	assert.True(t, Device("dev-1").Matches(owned))
	assert.False(t, Device("dev-2").Matches(owned))
	assert.False(t, Email("ann@example.com").Matches(owned))

	assert.True(t, Email("ann@example.com").Matches(legacy))
	assert.False(t, Guest.Matches(legacy))

	assert.True(t, Guest.Matches(anon))
	for _, o := range []models.Order{owned, legacy, anon} {
		assert.True(t, All.Matches(o))
	}

	got := Device("dev-1").Filter([]models.Order{owned, legacy, anon})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestTargets(t *testing.T) {
	o := models.Order{OwnerDeviceID: "dev-9", Contact: models.CustomerContact{Email: "Bob@x.io"}}
	assert.Equal(t, []Key{All, Device("dev-9"), Email("bob@x.io"), Guest}, Targets(o))
	assert.Equal(t, []Key{All, Guest}, Targets(models.Order{}))
}
