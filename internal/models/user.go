package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type User struct {
	ID        string     `json:"_id,omitempty"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	Mobile    string     `json:"mobile,omitempty"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Role      Role       `json:"role,omitempty"`
	Status    UserStatus `json:"status,omitempty"`
	Image     string     `json:"image,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func (u User) Key() string { return u.ID }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserPatch is merged into the signed-in user; nil fields are kept.
type UserPatch struct {
	Username  *string
	Email     *string
	Mobile    *string
	FirstName *string
	LastName  *string
	Role      *Role
	Status    *UserStatus
	Image     *string
}

// UserPatchFrom turns a server-returned user into a patch, skipping empty fields.
func UserPatchFrom(u User) UserPatch {
	var p UserPatch
	set := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	set(&p.Username, u.Username)
	set(&p.Email, u.Email)
	set(&p.Mobile, u.Mobile)
	set(&p.FirstName, u.FirstName)
	set(&p.LastName, u.LastName)
	set(&p.Image, u.Image)
	if u.Role != "" {
		r := u.Role
		p.Role = &r
	}
	if u.Status != "" {
		s := u.Status
		p.Status = &s
	}
	return p
}

func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Mobile != nil {
		u.Mobile = *p.Mobile
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.Image != nil {
		u.Image = *p.Image
	}
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type PasswordReset struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type UserListParams struct {
	Page      int
	Limit     int
	Search    string
	Role      Role
	SortBy    string
	SortOrder string
}

func DefaultUserListParams() UserListParams {
	return UserListParams{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: "desc"}
}

type Pagination struct {
	Page       int `json:"currentPage"`
	Limit      int `json:"limit"`
	Total      int `json:"totalUsers"`
	TotalPages int `json:"totalPages"`
}

type UserPage struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

type UserStats struct {
	Total    int `json:"totalUsers"`
	Active   int `json:"activeUsers"`
	Inactive int `json:"inactiveUsers"`
	Admins   int `json:"adminUsers"`
	Staff    int `json:"staffUsers"`
}
