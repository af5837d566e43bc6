package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a Brazilian postal address.
// It is stored as a JSON document in a single column.
type Address struct {
	CEP          string `json:"cep,omitempty"`
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
}

// Normalize trims fields, validates the CEP and upper-cases the state (UF)
func (a Address) Normalize() (Address, error) {
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
	a.Neighborhood = strings.TrimSpace(a.Neighborhood)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))

	if a.CEP != "" {
		cep, err := NewCEP(a.CEP)
		if err != nil {
			return Address{}, err
		}
		a.CEP = cep.String()
	}
	if a.State != "" && len(a.State) != 2 {
		return Address{}, fmt.Errorf("state must be a two-letter UF code")
	}
	return a, nil
}

// IsEmpty reports whether no field is set
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// String formats the address on one line
func (a Address) String() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, 5)
	street := a.Street
	if a.Number != "" {
		street += ", " + a.Number
	}
	if a.Complement != "" {
		street += " " + a.Complement
	}
	if street != "" {
		parts = append(parts, street)
	}
	if a.Neighborhood != "" {
		parts = append(parts, a.Neighborhood)
	}
	cityState := a.City
	if a.State != "" {
		if cityState != "" {
			cityState += "/"
		}
		cityState += a.State
	}
	if cityState != "" {
		parts = append(parts, cityState)
	}
	if a.CEP != "" {
		parts = append(parts, CEP(a.CEP).Formatted())
	}
	return strings.Join(parts, " - ")
}

// Value implements driver.Valuer
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}

// GeoPoint is a WGS84 coordinate captured on site
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewGeoPoint validates coordinate ranges
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	if lat < -90 || lat > 90 {
		return GeoPoint{}, fmt.Errorf("latitude %v out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return GeoPoint{}, fmt.Errorf("longitude %v out of range", lng)
	}
	return GeoPoint{Latitude: lat, Longitude: lng}, nil
}
