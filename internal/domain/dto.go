package domain

// CreateOrderRequest is the order intake payload.
type CreateOrderRequest struct {
	CustomerName string  `json:"customerName"`
	Food         string  `json:"food"`
	Total        float64 `json:"total"`
}

// LoginRequest asks for a short-lived bearer credential.
type LoginRequest struct {
	Username string `json:"username"`
}

// LoginResponse carries the signed credential back to the client.
type LoginResponse struct {
	Token string `json:"token"`
}
