package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrUnknownCharge      = errors.New("no session matches charge")
	ErrProvisioningFailed = errors.New("router provisioning failed")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrLockBusy           = errors.New("session lock busy")
)
