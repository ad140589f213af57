package auth

import "boozstudio/internal/domain"

const minPasswordLen = 6

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname"`
	Phone    string `json:"phone"`

	BloodType        string `json:"blood_type"`
	Allergies        string `json:"allergies"`
	Injuries         string `json:"injuries"`
	EmergencyContact string `json:"emergency_contact"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Account *domain.Account `json:"user"`
	Token   string          `json:"token"`
}
