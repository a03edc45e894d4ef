package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPermissions(t *testing.T) {
	tests := []struct {
		name  string
		perms int32
		want  Permissions
	}{
		{
			name:  "All permissions granted",
			perms: -1, // All bits set
			want:  Permissions{Print: true, Modify: true, Copy: true, Annotate: true},
		},
		{
			name:  "No permissions granted",
			perms: -64, // 0xFFFFFFC0 - only reserved bits 7-8 and up
			want:  Permissions{},
		},
		{
			name:  "Print only",
			perms: -60, // 0xFFFFFFC4
			want:  Permissions{Print: true},
		},
		{
			name:  "Print and copy",
			perms: -44, // 0xFFFFFFD4
			want:  Permissions{Print: true, Copy: true},
		},
		{
			name:  "Modify and annotate",
			perms: -24, // 0xFFFFFFE8
			want:  Permissions{Modify: true, Annotate: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPermissions(tt.perms))
		})
	}
}

func TestParsePermissions(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		want    Permissions
		wantErr bool
	}{
		{name: "empty", names: nil, want: Permissions{}},
		{name: "none", names: []string{"none"}, want: Permissions{}},
		{name: "print", names: []string{"print"}, want: Permissions{Print: true}},
		{name: "mixed case and spaces", names: []string{" Print", "COPY "}, want: Permissions{Print: true, Copy: true}},
		{
			name:  "all",
			names: []string{"print", "modify", "copy", "annotate"},
			want:  Permissions{Print: true, Modify: true, Copy: true, Annotate: true},
		},
		{name: "comma list", names: []string{"print,annotate"}, want: Permissions{Print: true, Annotate: true}},
		{name: "unknown", names: []string{"print", "extract"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePermissions(tt.names)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown permission")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPermissions_Flags(t *testing.T) {
	assert.Equal(t, byte(0), Permissions{}.Flags())
	assert.Equal(t, byte(0x04), Permissions{Print: true}.Flags())
	assert.Equal(t, byte(0x3C), Permissions{Print: true, Modify: true, Copy: true, Annotate: true}.Flags())

	// The P value written for granted flags decodes to the same rights.
	for _, p := range []Permissions{{}, {Print: true}, {Copy: true, Annotate: true}} {
		protection := int32(192 | p.Flags())
		assert.Equal(t, p, NewPermissions(-((protection ^ 255) + 1)))
	}
}

func TestPermissions_String(t *testing.T) {
	assert.Equal(t, "No permissions granted", Permissions{}.String())
	assert.Equal(t, "Allowed: print, copy", Permissions{Print: true, Copy: true}.String())
	assert.Equal(t, []string{}, Permissions{}.GetAllowedOperations())
	assert.Equal(t, PermissionNames(), Permissions{Print: true, Modify: true, Copy: true, Annotate: true}.GetAllowedOperations())
}

// Benchmark tests
func BenchmarkNewPermissions(b *testing.B) {
	testVal := int32(-44)
	for i := 0; i < b.N; i++ {
		_ = NewPermissions(testVal)
	}
}
