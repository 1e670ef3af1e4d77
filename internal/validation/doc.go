// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// reflection data and is safe for concurrent use. Field names in errors come
// from the koanf tag, then the json tag, then the Go field name, so messages
// name the config key or query parameter the user actually wrote.
//
// # Usage
//
// Configuration sections:
//
//	type WebhookConfig struct {
//	    Enabled bool   `koanf:"enabled"`
//	    URL     string `koanf:"url" validate:"required_if=Enabled true,omitempty,url"`
//	}
//
// API query parameters:
//
//	type threatsQuery struct {
//	    Hours int `json:"hours" validate:"min=1,max=168"`
//	}
//
//	if err := validation.ValidateStruct(&q); err != nil {
//	    apiErr := err.ToAPIError()
//	    rw.ValidationError(apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Error Messages
//
//	required      -> "url is required"
//	min=1         -> "hours must be at least 1"
//	max=168       -> "hours must be at most 168"
//	oneof=a b     -> "level must be one of: a b"
//	ip|cidr       -> "allowlist[0] must be an IP address or CIDR prefix"
//	required_if   -> "url is required when Enabled true"
//
// ToAPIError wraps one or more failures in a VALIDATION_ERROR code with the
// failing fields listed in Details.
package validation
