package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleLabels(t *testing.T) {
	cases := []struct {
		role  Role
		label string
		home  string
	}{
		{RoleSuperAdmin, "مدیر کل", "/super-admin/dashboard"},
		{RoleManager, "مدیر", "/manager/dashboard"},
		{RoleEmployee, "کارمند", "/employee/dashboard"},
		{Role("9"), "", "/login"},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.label, tc.role.Label())
			assert.Equal(t, tc.home, tc.role.HomePath())
			assert.Equal(t, tc.label != "", tc.role.Valid())
		})
	}
}
