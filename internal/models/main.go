// Package models defines the core data structures for warranty lookups.
package models

import "encoding/json"

// IdentityRecord holds vehicle and owner identity data returned by the
// portal's warranty-info call. The json tags match the portal's own field
// names so the record decodes straight from the portal payload; missing
// keys stay empty and are omitted when the record is re-encoded.
type IdentityRecord struct {
	// Telaio is the chassis identification number.
	Telaio string `json:"telaio,omitempty"`
	// Targa is the vehicle plate.
	Targa string `json:"targa,omitempty"`
	// RagSociale is the owning company name.
	RagSociale string `json:"rag_sociale,omitempty"`
	// Piva is the owner's tax identification number.
	Piva string `json:"piva,omitempty"`
	// Indirizzo is the owner's address.
	Indirizzo string `json:"indirizzo,omitempty"`
	// Nazione is the owner's country.
	Nazione string `json:"nazione,omitempty"`
}

// WarrantyEntry is one element of the portal's WARRANTY_LIST, decoded from
// the coverage call's inner JSON document. Field names are portal-assigned.
type WarrantyEntry struct {
	VIN                 string      `json:"VIN"`
	WarrantyType        string      `json:"WARRANTY_TYPE"`
	WarrantyTypeID      json.Number `json:"WARRANTY_TYPE_ID"`
	WarrantyStartDate   string      `json:"WARRANTY_START_DATE"`
	WarrantyEndDate     string      `json:"WARRANTY_END_DATE"`
	RegistrationDate    string      `json:"REGISTRATION_DATE"`
	DealerCode          string      `json:"DEALER_CODE"`
	DealerName          string      `json:"DEALER_NAME"`
	EntityName          string      `json:"ENTITY_NAME"`
	HasVehicleSC        bool        `json:"HAS_VEHICLE_SC"`
	HasOilTop           bool        `json:"HAS_OILTOP"`
	HasWearTear         bool        `json:"HAS_WEARTEAR"`
	HasBattery          bool        `json:"HAS_BATTERY"`
	HasFusesBulbs       bool        `json:"HAS_FUSESBULBS"`
	HasDPFFilter        bool        `json:"HAS_DPFFILTER"`
	HasUptime           bool        `json:"HAS_UPTIME"`
	UptimeName          string      `json:"UPTIME_NAME"`
	AddIsOilAnalysis    bool        `json:"ADD_IS_OILANALYSIS"`
	AddIsVehiclePickup  bool        `json:"ADD_IS_VEHICLEPICKUP"`
	AddIsAnnualMOT      bool        `json:"ADD_IS_ANNUALMOT"`
	SCOtherDesc         string      `json:"SC_OTHER_DESC"`
	FreeTowingStartDate string      `json:"FREETOWING_START_DATE"`
	FreeTowingEndDate   string      `json:"FREETOWING_END_DATE"`
}

// CoverageRecord is the normalized warranty coverage for one vehicle.
// When the portal reports no warranty entries only HasWarranty is set and
// every detail field stays absent; that is a valid outcome, not an error.
type CoverageRecord struct {
	// HasWarranty reports whether the portal lists an active warranty.
	HasWarranty bool `json:"has_warranty"`

	WarrantyType        string `json:"warranty_type,omitempty"`
	WarrantyTypeID      string `json:"warranty_type_id,omitempty"`
	WarrantyStartDate   string `json:"warranty_start_date,omitempty"`
	WarrantyEndDate     string `json:"warranty_end_date,omitempty"`
	RegistrationDate    string `json:"registration_date,omitempty"`
	DealerCode          string `json:"dealer_code,omitempty"`
	DealerName          string `json:"dealer_name,omitempty"`
	EntityName          string `json:"entity_name,omitempty"`
	VIN                 string `json:"vin,omitempty"`
	HasServiceContract  bool   `json:"has_service_contract,omitempty"`
	HasOilTopUp         bool   `json:"has_oil_top_up,omitempty"`
	HasWearTear         bool   `json:"has_wear_tear,omitempty"`
	HasBattery          bool   `json:"has_battery,omitempty"`
	HasFusesBulbs       bool   `json:"has_fuses_bulbs,omitempty"`
	HasDPFFilter        bool   `json:"has_dpf_filter,omitempty"`
	HasUptime           bool   `json:"has_uptime,omitempty"`
	UptimeName          string `json:"uptime_name,omitempty"`
	AddOilAnalysis      bool   `json:"add_oil_analysis,omitempty"`
	AddVehiclePickup    bool   `json:"add_vehicle_pickup,omitempty"`
	AddAnnualMOT        bool   `json:"add_annual_mot,omitempty"`
	SCOtherDesc         string `json:"sc_other_desc,omitempty"`
	FreeTowingStartDate string `json:"free_towing_start_date,omitempty"`
	FreeTowingEndDate   string `json:"free_towing_end_date,omitempty"`
}

// LookupResult aggregates everything one lookup produced: the normalized
// identity and coverage records plus the raw portal payloads, so callers
// can audit discrepancies without re-querying the portal.
type LookupResult struct {
	// Telaio is the chassis id the lookup ran for.
	Telaio string `json:"telaio"`
	// Identity holds the vehicle/owner record from the identity call.
	Identity IdentityRecord `json:"identity"`
	// Coverage holds the normalized warranty record from the coverage call.
	Coverage CoverageRecord `json:"coverage"`
	// RawIdentity is the identity call's unmodified response body.
	RawIdentity json.RawMessage `json:"raw_identity,omitempty"`
	// RawCoverage is the coverage call's unmodified outer response body.
	RawCoverage json.RawMessage `json:"raw_coverage,omitempty"`
}

// LookupRecord is one audit-trail row describing the outcome of a lookup.
type LookupRecord struct {
	// ID is the unique identifier for the lookup.
	ID string
	// Telaio is the chassis id that was looked up.
	Telaio string
	// Success reports whether the lookup completed without error.
	Success bool
	// ErrorKind holds the failure classification when Success is false.
	ErrorKind string
	// DurationMs is the wall time of the lookup in milliseconds.
	DurationMs int64
}
