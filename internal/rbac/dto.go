package rbac

type createPermissionRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

type createRoleRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type grantRequest struct {
	Code string `json:"code" validate:"required"`
}

type assignmentRequest struct {
	UserID string `json:"user_id" validate:"required"`
	RoleID int64  `json:"role_id" validate:"required,gt=0"`
}

type transferRequest struct {
	SourceRoleID    int64    `json:"source_role_id" validate:"required,gt=0"`
	DestRoleID      int64    `json:"dest_role_id" validate:"required,gt=0"`
	PermissionCodes []string `json:"permission_codes" validate:"required,min=1,dive,required"`
}

type transferResponse struct {
	SourceRoleID int64    `json:"source_role_id"`
	DestRoleID   int64    `json:"dest_role_id"`
	Transferred  []string `json:"transferred"`
}

// transferFailureResponse is the structured partial-failure report: the codes
// listed were revoked from the source role but never granted to the
// destination, and need manual repair.
type transferFailureResponse struct {
	Kind           string   `json:"kind"`
	SourceRoleID   int64    `json:"source_role_id"`
	DestRoleID     int64    `json:"dest_role_id"`
	UngrantedCodes []string `json:"ungranted_codes"`
	Detail         string   `json:"detail"`
}

func toPermissionResponse(p Permission) permissionResponse {
	return permissionResponse{ID: p.ID, Code: p.Code, Description: p.Description}
}

func toRoleResponse(r Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, Description: r.Description}
}
