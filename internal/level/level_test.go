package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want Level
	}{
		{"1", SuperAdmin},
		{"2", AdminOpd},
		{"3", AdminUpt},
		{"4", Pegawai},
		{"", Pegawai},
		{"99", Pegawai},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FromCode(tt.code), "code %q", tt.code)
	}
}

func TestResolve_AcceptsCodesAndNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SuperAdmin, Resolve("1"))
	assert.Equal(t, SuperAdmin, Resolve("superadmin"))
	assert.Equal(t, AdminOpd, Resolve("admin_opd"))
	assert.Equal(t, AdminUpt, Resolve("3"))
	assert.Equal(t, Pegawai, Resolve("pegawai"))
	assert.Equal(t, Pegawai, Resolve("unknown"))
}

func TestResolveSet(t *testing.T) {
	t.Parallel()

	set := ResolveSet([]string{"1", "admin_opd"})
	assert.True(t, set[SuperAdmin])
	assert.True(t, set[AdminOpd])
	assert.False(t, set[AdminUpt])
	assert.False(t, set[Pegawai])
	assert.Empty(t, ResolveSet(nil))
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	assert.True(t, SuperAdmin.IsAdmin())
	assert.True(t, AdminOpd.IsAdmin())
	assert.True(t, AdminUpt.IsAdmin())
	assert.False(t, Pegawai.IsAdmin())
}

func TestCodeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, lv := range []Level{SuperAdmin, AdminOpd, AdminUpt} {
		assert.Equal(t, lv, FromCode(lv.Code()))
	}
	assert.Equal(t, Pegawai, FromCode(Pegawai.Code()))
}
