package rbac

import "slices"

// 权限常量
const (
	// 管理后台
	PermissionModerateComments  = "comment:moderate"
	PermissionManageResponses   = "response:manage"
	PermissionViewAnalytics     = "analytics:read"
	PermissionRunFollowup       = "followup:run"
	PermissionManageContent     = "content:manage"
	PermissionManageCampaigns   = "campaign:manage"
	PermissionReplayOutbox      = "outbox:replay"
	PermissionCheckConnectivity = "vendor:connectivity"

	// 普通用户
	PermissionEnroll = "course:enroll"
	PermissionPay    = "payment:create"
)

// 角色常量
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var userPermissions = []string{
	PermissionEnroll,
	PermissionPay,
}

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleUser: userPermissions,
	RoleAdmin: append(slices.Clone(userPermissions),
		PermissionModerateComments,
		PermissionManageResponses,
		PermissionViewAnalytics,
		PermissionRunFollowup,
		PermissionManageContent,
		PermissionManageCampaigns,
		PermissionReplayOutbox,
		PermissionCheckConnectivity,
	),
}

// ValidRole 角色是否存在
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission 检查角色是否拥有指定权限
func HasPermission(role, permission string) bool {
	return slices.Contains(rolePermissions[role], permission)
}

// CheckPermission 同 HasPermission，返回错误便于 handler 处理
func CheckPermission(userID int64, role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 权限不足
type PermissionDeniedError struct {
	UserID     int64
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}

// ValidateOwner 校验资源归属，管理员可以访问任何人的资源
func ValidateOwner(tokenUserID int64, role string, ownerID int64) error {
	if role == RoleAdmin || tokenUserID == ownerID {
		return nil
	}
	return &OwnerMismatchError{TokenUserID: tokenUserID, OwnerID: ownerID}
}

// OwnerMismatchError 资源不属于当前用户
type OwnerMismatchError struct {
	TokenUserID int64
	OwnerID     int64
}

func (e *OwnerMismatchError) Error() string {
	return "resource does not belong to the current user"
}
