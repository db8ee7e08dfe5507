package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermissionModerateComments))
	assert.True(t, HasPermission(RoleAdmin, PermissionEnroll))
	assert.True(t, HasPermission(RoleUser, PermissionPay))
	assert.False(t, HasPermission(RoleUser, PermissionViewAnalytics))
	assert.False(t, HasPermission("guest", PermissionEnroll))
}

func TestCheckPermission(t *testing.T) {
	err := CheckPermission(7, RoleUser, PermissionRunFollowup)
	var denied *PermissionDeniedError
	assert.True(t, errors.As(err, &denied))
	assert.Equal(t, int64(7), denied.UserID)
	assert.NoError(t, CheckPermission(1, RoleAdmin, PermissionRunFollowup))
}

func TestValidateOwner(t *testing.T) {
	assert.NoError(t, ValidateOwner(3, RoleUser, 3))
	assert.NoError(t, ValidateOwner(1, RoleAdmin, 3))
	assert.Error(t, ValidateOwner(2, RoleUser, 3))
	assert.True(t, ValidRole(RoleUser))
	assert.False(t, ValidRole("root"))
}
