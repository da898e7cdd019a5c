// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mend

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator instances cache struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// RunConfig is the immutable per-invocation configuration, bound from CLI
// flags at startup. The three required fields must be non-empty before any
// work begins.
type RunConfig struct {
	// TestCommand is the shell command that runs the test suite once.
	TestCommand string `validate:"required"`

	// TargetFile is the path, relative to the working directory, of the
	// single file eligible for modification.
	TargetFile string `validate:"required"`

	// APIKey is the bearer credential for the completion endpoint.
	APIKey string `validate:"required"`

	// WatchPattern is an optional glob; when set, watch mode restarts the
	// cycle on matching file changes.
	WatchPattern string

	// Model selects the completion model; empty uses the client default.
	Model string
}

// Validate checks the required fields and returns the configuration error
// naming the first missing flag.
func (c RunConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.StructField() {
			case "TestCommand":
				return ErrMissingTestCommand
			case "TargetFile":
				return ErrMissingTargetFile
			case "APIKey":
				return ErrMissingAPIKey
			}
		}
	}
	return err
}
