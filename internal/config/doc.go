// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads adscan configuration.
//
// Precedence, lowest to highest: built-in defaults, YAML file (strict, single
// document), ADSCAN_* environment variables, CLI flag overrides. The result is
// validated once; invalid input is reported as faults.ErrConfiguration.
package config
