// Package srs defines the data contracts the ship-resource tick solver and
// its snapshot bus publish and consume: the solver itself lives outside
// this core (spec §1 names it a non-goal), but the event-scheduling core
// shares a process with it and must agree on the shapes crossing that
// boundary — snapshot envelopes, the SRS state tree, and the interfaces a
// solver/save-store neighbor implements.
package srs

import "math/rand"

// SnapshotSchema and SRSVersion stamp every snapshot this core reads or
// writes, so a later schema change can be detected before it corrupts a
// save.
const (
	SnapshotSchema = "starship.snap/v1"
	SRSVersion     = "0.1.0"
)

// PowerplantState mirrors the solver's powerplant model.
type PowerplantState struct {
	Online   bool    `json:"online"`
	OutputKW float64 `json:"output_kw"`
	MaxKW    float64 `json:"max_kw"`
}

// BatteryState mirrors the solver's simple battery model.
type BatteryState struct {
	KW             float64 `json:"kw"`
	CapacityKW     float64 `json:"capacity_kw"`
	MaxChargeKW    float64 `json:"max_charge_kw"`
	MaxDischargeKW float64 `json:"max_discharge_kw"`
}

// LifeSupportState mirrors the solver's crew life-support readings.
type LifeSupportState struct {
	O2Pct     float64 `json:"o2_pct"`
	TempC     float64 `json:"temp_c"`
	CrewAwake int     `json:"crew_awake"`
}

// PowerState bundles the plant and battery readings the solver advances
// together each tick.
type PowerState struct {
	Plant   PowerplantState `json:"plant"`
	Battery BatteryState    `json:"battery"`
}

// EnvState mirrors the solver's ambient-environment readings.
type EnvState struct {
	ShipTempC float64 `json:"ship_temp_c"`
}

// SRSState is the full ship-resource state tree a snapshot carries.
type SRSState struct {
	Power PowerState       `json:"power"`
	Life  LifeSupportState `json:"life"`
	Env   EnvState         `json:"env"`
}

// SnapshotMeta stamps a Snapshot with the tick it was taken at and the
// schema/version pair consumers should check before trusting State's shape.
type SnapshotMeta struct {
	TsMs    int64  `json:"ts_ms"`
	Tick    int64  `json:"tick"`
	Schema  string `json:"schema"`
	Version string `json:"version"`
}

// Snapshot is the envelope the tick solver publishes and the save store
// persists: meta plus an opaque state tree, not necessarily SRSState — the
// solver may carry other subsystems' state alongside it.
type Snapshot struct {
	Meta  SnapshotMeta           `json:"meta"`
	State map[string]interface{} `json:"state"`
}

// SnapshotSource is implemented by whatever process keeps the latest
// published tick-solver snapshot in memory.
type SnapshotSource interface {
	GetLatest() (*Snapshot, bool)
}

// SnapshotSink is implemented by whatever process receives newly-solved
// snapshots, such as a telemetry bus. Nothing in this core implements it.
type SnapshotSink interface {
	Publish(snap *Snapshot) error
}

// SaveStore persists and restores named Snapshots. internal/persist
// provides the JSON-backed implementation this core ships.
type SaveStore interface {
	Save(snap *Snapshot, name string) (string, error)
	Load(name string) (*Snapshot, error)
}

// TickSolver advances state by dt_s seconds using rng for any stochastic
// behavior, returning the new state tree. The core never implements this
// itself; it is declared here so a solver living alongside this core can be
// exercised against a shared contract.
type TickSolver interface {
	Tick(state map[string]interface{}, dtS float64, rng *rand.Rand) (map[string]interface{}, error)
}

// EventQueueView is the minimal surface a tick solver needs to raise
// system-originated events without importing the full queue/broker API.
type EventQueueView interface {
	PublishSystemEvent(kind string, payload map[string]interface{}) error
}
