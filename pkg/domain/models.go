package domain

import "time"

// Page is a paginated list returned by list operations.
type Page[T any] struct {
	Data      []T `json:"data"`
	Count     int `json:"count,omitempty"`
	Total     int `json:"total"`
	Page      int `json:"page,omitempty"`
	PageCount int `json:"pageCount,omitempty"`
}

// EmptyPage is the initial shape of list fields.
func EmptyPage[T any]() Page[T] {
	return Page[T]{Data: []T{}}
}

// Timestamps are the audit fields shared by persisted resources.
type Timestamps struct {
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// VehicleType is a category of vehicle admitted to the parking.
type VehicleType struct {
	ID              ID     `json:"id,omitempty"`
	VehicleTypeCode string `json:"vehicleTypeCode,omitempty"`
	VehicleTypeName string `json:"vehicleTypeName,omitempty"`
	Timestamps
}

// Arrival is one recorded entry of a vehicle at the gate.
type Arrival struct {
	ID             ID         `json:"id,omitempty"`
	RFID           string     `json:"rfid,omitempty"`
	FullName       string     `json:"fullName,omitempty"`
	VehiclesNumber string     `json:"vehiclesNumber,omitempty"`
	VehiclesType   string     `json:"vehiclesType,omitempty"`
	Arrival        *time.Time `json:"arrival,omitempty"`
	Departure      *time.Time `json:"departure,omitempty"`
	Timestamps
}

// RFID is a card registered to a vehicle owner.
type RFID struct {
	ID             ID     `json:"id,omitempty"`
	RFID           string `json:"rfid,omitempty"`
	FullName       string `json:"fullName,omitempty"`
	VehiclesNumber string `json:"vehiclesNumber,omitempty"`
	VehicleTypeID  ID     `json:"vehicleTypeId,omitempty"`
	IsActive       *bool  `json:"isActive,omitempty"`
	Timestamps
}

// RFIDLog is one card read recorded by a reader.
type RFIDLog struct {
	ID      ID     `json:"id,omitempty"`
	RFID    string `json:"rfid,omitempty"`
	Gate    string `json:"gate,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Timestamps
}

// GateLog is one opening or rejection recorded by a gate.
type GateLog struct {
	ID        ID     `json:"id,omitempty"`
	Gate      string `json:"gate,omitempty"`
	Direction string `json:"direction,omitempty"`
	RFID      string `json:"rfid,omitempty"`
	Status    string `json:"status,omitempty"`
	Timestamps
}

// User is an operator account of the dashboard.
type User struct {
	ID       ID     `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
	Timestamps
}

// Profile is the authenticated user as returned by the auth endpoints.
type Profile = User

// LoginRequest is the body of the login operation.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	Role         string   `json:"role,omitempty"`
	User         *Profile `json:"user,omitempty"`
}

// Chart is a report payload rendered as a chart. It is passed through untouched.
type Chart map[string]any

// File is a downloaded binary document.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
