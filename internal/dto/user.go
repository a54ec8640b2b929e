package dto

import (
	"github.com/expenseflow/expense_flow_app/internal/core/domain"
)

// CreateUserRequest defines the data needed to register a local user.
type CreateUserRequest struct {
	Username   string  `json:"username" binding:"required,min=3,max=50"`
	Password   string  `json:"password" binding:"required,min=8"`
	FullName   string  `json:"fullName" binding:"required,max=100"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=30"`
}

// UpdateUserRequest defines the data allowed for updating a user.
// Role changes are admin-only; the service enforces that.
type UpdateUserRequest struct {
	FullName   *string `json:"fullName" binding:"omitempty,max=100"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=30"`
	Role       *string `json:"role" binding:"omitempty,oneof=employee manager partner admin"`
}

// LoginRequest defines the credentials for a local login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response for a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse defines the data returned for a user.
type UserResponse struct {
	UserID     string  `json:"userID"`
	Username   string  `json:"username"`
	FullName   string  `json:"fullName"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Role       string  `json:"role"`
}

// ListUsersParams defines query parameters for listing users.
type ListUsersParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListUsersResponse wraps the list of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// ToUserResponse converts a domain.User to UserResponse DTO
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:     user.UserID,
		Username:   user.Username,
		FullName:   user.FullName,
		Email:      user.Email,
		Department: user.Department,
		Phone:      user.Phone,
		Role:       string(user.Role),
	}
}

// ToListUsersResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUsersResponse(users []domain.User) ListUsersResponse {
	res := make([]UserResponse, len(users))
	for i := range users {
		res[i] = ToUserResponse(&users[i])
	}
	return ListUsersResponse{Users: res}
}
