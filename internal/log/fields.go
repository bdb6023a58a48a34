// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldChannel   = "channel"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldPhase     = "phase"
	FieldWorker    = "worker"
	FieldStrategy  = "strategy"

	// Media fields
	FieldSource    = "source"
	FieldOffsetSec = "offset_sec"
	FieldCorner    = "corner"
	FieldBackend   = "backend"

	// Path fields
	FieldPath       = "path"
	FieldConfigPath = "config_path"
)
