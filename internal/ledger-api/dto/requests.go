package dto

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PlaceBetRequest: a cotação vem do catálogo, não do cliente
type PlaceBetRequest struct {
	MatchID    string `json:"matchId"`
	Prediction string `json:"prediction"` // nome do time ou "Draw"
	Amount     int64  `json:"amount"`
}

type BalanceRequest struct {
	Delta int64 `json:"delta"` // positivo credita, negativo debita
}

type ResolveRequest struct {
	Outcome string `json:"outcome"` // "won" | "lost"
}

// UpdateUserRequest substitui o perfil. Password vazio mantém a senha atual.
type UpdateUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password,omitempty"`
	DisplayName string `json:"displayName"`
	Gold        int64  `json:"gold"`
	IsAdmin     bool   `json:"isAdmin"`
	IsPremium   bool   `json:"isPremium"`
}
