package dto

import "github.com/radieske/gold-ledger/internal/accounts"

type LoginResponse struct {
	Token string        `json:"token"`
	User  accounts.User `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
