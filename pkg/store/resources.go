package store

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Slice names.
const (
	SliceAuth        = "auth"
	SliceUser        = "user"
	SliceRFID        = "rfid"
	SliceRFIDLog     = "rfid-log"
	SliceVehicleType = "vehicle-type"
	SliceArrival     = "arrival"
	SliceParking     = "parking"
	SliceLogGate     = "log-gate"
)

// Mutation is the payload of create, update and delete operations: the raw
// response body, kept for the caller. Mutations only update the slice flags.
type Mutation = json.RawMessage

func get(path, notFound string) domain.Endpoint {
	return domain.Endpoint{Method: http.MethodGet, Path: path, NotFound: notFound}
}

func byID(method, path, notFound string) domain.Endpoint {
	return domain.Endpoint{Method: method, Path: path, WithID: true, NotFound: notFound}
}

// AuthData holds the authenticated profile and the last issued tokens.
type AuthData struct {
	Profile domain.Profile   `json:"data"`
	Tokens  domain.TokenPair `json:"tokens"`
}

type AuthSlice struct {
	*Slice[AuthData]
	Login      *Thunk[AuthData, domain.TokenPair]
	GetAuthMe  *Thunk[AuthData, domain.Profile]
	WebRefresh *Thunk[AuthData, domain.TokenPair]
}

func newAuthSlice(s *Store) *AuthSlice {
	const notFound = "user not found"
	sl := NewSlice(s, SliceAuth, func() AuthData { return AuthData{} })
	sl.OnReset("resetProfile", func(d *AuthData) { d.Profile = domain.Profile{} })
	setTokens := func(d *AuthData, p domain.TokenPair) { d.Tokens = p }

	return &AuthSlice{
		Slice: sl,
		Login: Define(sl, "login",
			domain.Endpoint{Method: http.MethodPost, Path: "auth/login", NotFound: notFound},
			setTokens, Unguarded()),
		GetAuthMe: Define(sl, "getAuthMe", get("auth/me", notFound),
			func(d *AuthData, p domain.Profile) { d.Profile = p }),
		WebRefresh: Define(sl, "webRefresh",
			domain.Endpoint{Method: http.MethodPost, Path: "auth/refresh", NotFound: notFound},
			setTokens, Unguarded()),
	}
}

type UserData struct {
	Users domain.Page[domain.User] `json:"users"`
	User  domain.User              `json:"user"`
}

type UserSlice struct {
	*Slice[UserData]
	GetUsers    *Thunk[UserData, domain.Page[domain.User]]
	GetUserByID *Thunk[UserData, domain.User]
	CreateUser  *Thunk[UserData, Mutation]
	UpdateUser  *Thunk[UserData, Mutation]
	DeleteUser  *Thunk[UserData, Mutation]
}

func newUserSlice(s *Store) *UserSlice {
	const notFound = "user not found"
	empty := func() UserData { return UserData{Users: domain.EmptyPage[domain.User]()} }
	sl := NewSlice(s, SliceUser, empty).
		OnReset("resetUsers", func(d *UserData) { d.Users = domain.EmptyPage[domain.User]() }).
		OnReset("resetUser", func(d *UserData) { d.User = domain.User{} })

	return &UserSlice{
		Slice:       sl,
		GetUsers:    Define(sl, "getUsers", get("user", notFound), func(d *UserData, p domain.Page[domain.User]) { d.Users = p }),
		GetUserByID: Define(sl, "getUserById", byID(http.MethodGet, "user", notFound), func(d *UserData, p domain.User) { d.User = p }),
		CreateUser:  Define[UserData, Mutation](sl, "createUser", domain.Endpoint{Method: http.MethodPost, Path: "user", NotFound: notFound}, nil),
		UpdateUser:  Define[UserData, Mutation](sl, "updateUser", byID(http.MethodPatch, "user", notFound), nil),
		DeleteUser:  Define[UserData, Mutation](sl, "deleteUser", byID(http.MethodDelete, "user", notFound), nil),
	}
}

type RFIDData struct {
	RFIDs domain.Page[domain.RFID] `json:"rfids"`
	RFID  domain.RFID              `json:"rfid"`
}

type RFIDSlice struct {
	*Slice[RFIDData]
	GetRFIDs    *Thunk[RFIDData, domain.Page[domain.RFID]]
	GetRFIDByID *Thunk[RFIDData, domain.RFID]
	CreateRFID  *Thunk[RFIDData, Mutation]
	UpdateRFID  *Thunk[RFIDData, Mutation]
	DeleteRFID  *Thunk[RFIDData, Mutation]
}

func newRFIDSlice(s *Store) *RFIDSlice {
	const notFound = "rfid not found"
	empty := func() RFIDData { return RFIDData{RFIDs: domain.EmptyPage[domain.RFID]()} }
	sl := NewSlice(s, SliceRFID, empty).
		OnReset("resetRfids", func(d *RFIDData) { d.RFIDs = domain.EmptyPage[domain.RFID]() }).
		OnReset("resetRfid", func(d *RFIDData) { d.RFID = domain.RFID{} })

	return &RFIDSlice{
		Slice:       sl,
		GetRFIDs:    Define(sl, "getRfids", get("rfid", notFound), func(d *RFIDData, p domain.Page[domain.RFID]) { d.RFIDs = p }),
		GetRFIDByID: Define(sl, "getRfidById", byID(http.MethodGet, "rfid", notFound), func(d *RFIDData, p domain.RFID) { d.RFID = p }),
		CreateRFID:  Define[RFIDData, Mutation](sl, "createRfid", domain.Endpoint{Method: http.MethodPost, Path: "rfid", NotFound: notFound}, nil),
		UpdateRFID:  Define[RFIDData, Mutation](sl, "updateRfid", byID(http.MethodPatch, "rfid", notFound), nil),
		DeleteRFID:  Define[RFIDData, Mutation](sl, "deleteRfid", byID(http.MethodDelete, "rfid", notFound), nil),
	}
}

type RFIDLogData struct {
	Logs domain.Page[domain.RFIDLog] `json:"logs"`
	Log  domain.RFIDLog              `json:"log"`
}

type RFIDLogSlice struct {
	*Slice[RFIDLogData]
	GetRFIDLogs    *Thunk[RFIDLogData, domain.Page[domain.RFIDLog]]
	GetRFIDLogByID *Thunk[RFIDLogData, domain.RFIDLog]
}

func newRFIDLogSlice(s *Store) *RFIDLogSlice {
	const notFound = "log not found"
	empty := func() RFIDLogData { return RFIDLogData{Logs: domain.EmptyPage[domain.RFIDLog]()} }
	sl := NewSlice(s, SliceRFIDLog, empty).
		OnReset("resetRfidLogs", func(d *RFIDLogData) { d.Logs = domain.EmptyPage[domain.RFIDLog]() }).
		OnReset("resetRfidLog", func(d *RFIDLogData) { d.Log = domain.RFIDLog{} })

	return &RFIDLogSlice{
		Slice:          sl,
		GetRFIDLogs:    Define(sl, "getRfidLogs", get("rfid-log", notFound), func(d *RFIDLogData, p domain.Page[domain.RFIDLog]) { d.Logs = p }),
		GetRFIDLogByID: Define(sl, "getRfidLogById", byID(http.MethodGet, "rfid-log", notFound), func(d *RFIDLogData, p domain.RFIDLog) { d.Log = p }),
	}
}

// VehicleTypeResource names vehicle type exports.
const VehicleTypeResource = "Vehicle Type"

type VehicleTypeData struct {
	VehicleTypes domain.Page[domain.VehicleType] `json:"vehicleTypes"`
	VehicleType  domain.VehicleType              `json:"vehicleType"`
}

type VehicleTypeSlice struct {
	*Slice[VehicleTypeData]
	GetVehicleTypes    *Thunk[VehicleTypeData, domain.Page[domain.VehicleType]]
	GetVehicleTypeByID *Thunk[VehicleTypeData, domain.VehicleType]
	CreateVehicleType  *Thunk[VehicleTypeData, Mutation]
	UpdateVehicleType  *Thunk[VehicleTypeData, Mutation]
	DeleteVehicleType  *Thunk[VehicleTypeData, Mutation]
	ExportVehicleType  *Thunk[VehicleTypeData, domain.File]
	ImportVehicleType  *Thunk[VehicleTypeData, Mutation]
}

// VehicleTypeSearchFields are matched by the vehicle type search box.
var VehicleTypeSearchFields = []string{"vehicleTypeCode", "vehicleTypeName"}

// VehicleTypeSortField is ordered by an explicit sort.
const VehicleTypeSortField = "vehicleTypeName"

func newVehicleTypeSlice(s *Store) *VehicleTypeSlice {
	const notFound = "vehicle type not found"
	empty := func() VehicleTypeData {
		return VehicleTypeData{VehicleTypes: domain.EmptyPage[domain.VehicleType]()}
	}
	sl := NewSlice(s, SliceVehicleType, empty).
		OnReset("resetVehicleTypes", func(d *VehicleTypeData) { d.VehicleTypes = domain.EmptyPage[domain.VehicleType]() }).
		OnReset("resetVehicleType", func(d *VehicleTypeData) { d.VehicleType = domain.VehicleType{} })

	export := domain.Endpoint{Method: http.MethodGet, Path: "vehicleType/export", Binary: true, NotFound: notFound}

	return &VehicleTypeSlice{
		Slice:              sl,
		GetVehicleTypes:    Define(sl, "getVehicleTypes", get("vehicleType", notFound), func(d *VehicleTypeData, p domain.Page[domain.VehicleType]) { d.VehicleTypes = p }),
		GetVehicleTypeByID: Define(sl, "getVehicleTypeById", byID(http.MethodGet, "vehicleType", notFound), func(d *VehicleTypeData, p domain.VehicleType) { d.VehicleType = p }),
		CreateVehicleType:  Define[VehicleTypeData, Mutation](sl, "createVehicleType", domain.Endpoint{Method: http.MethodPost, Path: "vehicleType", NotFound: notFound}, nil),
		UpdateVehicleType:  Define[VehicleTypeData, Mutation](sl, "updateVehicleType", byID(http.MethodPatch, "vehicleType", notFound), nil),
		DeleteVehicleType:  Define[VehicleTypeData, Mutation](sl, "deleteVehicleType", byID(http.MethodDelete, "vehicleType", notFound), nil),
		ExportVehicleType:  DefineWith(sl, "exportVehicleType", export, FileDecoder(VehicleTypeResource, s.rt.now), nil),
		ImportVehicleType:  Define[VehicleTypeData, Mutation](sl, "importVehicleType", domain.Endpoint{Method: http.MethodPost, Path: "vehicleType/import", NotFound: notFound}, nil),
	}
}

// FileDecoder keeps a binary reply as a file. The server's filename wins;
// otherwise it is named after resource and the time of download.
func FileDecoder(resource string, now func() time.Time) Decoder[domain.File] {
	return func(reply *domain.Reply) (domain.File, error) {
		contentType := reply.ContentType
		if contentType == "" {
			contentType = domain.SpreadsheetMIME
		}
		name := reply.Filename
		if name == "" {
			name = domain.ExportFilename(resource, now())
		}
		return domain.File{
			Name:        name,
			ContentType: contentType,
			Data:        reply.Body,
		}, nil
	}
}

type ArrivalData struct {
	Arrivals domain.Page[domain.Arrival] `json:"arrivals"`
	Arrival  domain.Arrival              `json:"arrival"`
}

type ArrivalSlice struct {
	*Slice[ArrivalData]
	GetArrivals    *Thunk[ArrivalData, domain.Page[domain.Arrival]]
	GetArrivalByID *Thunk[ArrivalData, domain.Arrival]
}

func newArrivalSlice(s *Store) *ArrivalSlice {
	const notFound = "rfid not found"
	empty := func() ArrivalData { return ArrivalData{Arrivals: domain.EmptyPage[domain.Arrival]()} }
	sl := NewSlice(s, SliceArrival, empty).
		OnReset("resetArrivals", func(d *ArrivalData) { d.Arrivals = domain.EmptyPage[domain.Arrival]() }).
		OnReset("resetArrival", func(d *ArrivalData) { d.Arrival = domain.Arrival{} })

	return &ArrivalSlice{
		Slice:          sl,
		GetArrivals:    Define(sl, "getArrivals", get("dashboard/arrival", notFound), func(d *ArrivalData, p domain.Page[domain.Arrival]) { d.Arrivals = p }),
		GetArrivalByID: Define(sl, "getArrivalById", byID(http.MethodGet, "dashboard/arrival", notFound), func(d *ArrivalData, p domain.Arrival) { d.Arrival = p }),
	}
}

// ParkingData holds the weekly report charts.
type ParkingData struct {
	Parkings domain.Chart `json:"parkings"`
	Parking  domain.Chart `json:"parking"`
	Duration domain.Chart `json:"duration"`
}

type ParkingSlice struct {
	*Slice[ParkingData]
	GetParkings    *Thunk[ParkingData, domain.Chart]
	GetParkingByID *Thunk[ParkingData, domain.Chart]
	GetDuration    *Thunk[ParkingData, domain.Chart]
}

func newParkingSlice(s *Store) *ParkingSlice {
	const notFound = "rfid not found"
	empty := func() ParkingData {
		return ParkingData{Parkings: domain.Chart{}, Parking: domain.Chart{}, Duration: domain.Chart{}}
	}
	sl := NewSlice(s, SliceParking, empty).
		OnReset("resetParkings", func(d *ParkingData) { d.Parkings = domain.Chart{} }).
		OnReset("resetParking", func(d *ParkingData) { d.Parking = domain.Chart{} }).
		OnReset("resetDuration", func(d *ParkingData) { d.Duration = domain.Chart{} })

	return &ParkingSlice{
		Slice:          sl,
		GetParkings:    Define(sl, "getParkings", get("dashboard/weekly/report", notFound), func(d *ParkingData, p domain.Chart) { d.Parkings = p }),
		GetParkingByID: Define(sl, "getParkingById", byID(http.MethodGet, "dashboard/weekly/arrival", notFound), func(d *ParkingData, p domain.Chart) { d.Parking = p }),
		GetDuration:    Define(sl, "getDuration", get("dashboard/weekly/peekTime", notFound), func(d *ParkingData, p domain.Chart) { d.Duration = p }),
	}
}

type LogGateData struct {
	Logs domain.Page[domain.GateLog] `json:"logs"`
	Log  domain.GateLog              `json:"log"`
}

type LogGateSlice struct {
	*Slice[LogGateData]
	GetLogGate *Thunk[LogGateData, domain.Page[domain.GateLog]]
}

func newLogGateSlice(s *Store) *LogGateSlice {
	const notFound = "log not found"
	empty := func() LogGateData { return LogGateData{Logs: domain.EmptyPage[domain.GateLog]()} }
	// resetLogGate clears only the selected log and the flags; Logs survives.
	sl := NewSlice(s, SliceLogGate, empty).
		OnReset("resetLogGate", func(d *LogGateData) { d.Log = domain.GateLog{} })

	return &LogGateSlice{
		Slice:      sl,
		GetLogGate: Define(sl, "getLogGate", get("gate", notFound), func(d *LogGateData, p domain.Page[domain.GateLog]) { d.Logs = p }),
	}
}
