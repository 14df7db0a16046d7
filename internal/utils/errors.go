package utils

import "errors"

// ----------------- storage ------------------
var (
	ErrStorageEmptyHostName       = errors.New("host name is empty")
	ErrStorageInvalidPortNumber   = errors.New("port number is invalid")
	ErrStorageEmptyUsername       = errors.New("username is empty")
	ErrStorageInvalidDatabaseName = errors.New("database name is empty")
	ErrStorageInvalidTimeout      = errors.New("timeout is invalid")
	ErrStorageInvalidPoolSize     = errors.New("pool size is invalid")
)

// ----------------- console ------------------
var (
	// ErrNoData - мягкое состояние "данных пока нет", не является ошибкой для оператора
	ErrNoData = errors.New("no data yet")

	ErrInvalidOrderID   = errors.New("invalid order id")
	ErrInvalidCourierID = errors.New("invalid courier account id")
	ErrInvalidSyncKind  = errors.New("invalid sync kind")
	ErrEmptyAWBNumber   = errors.New("awb number is empty")
	ErrEmptySyncID      = errors.New("sync id is empty")
)

// ----------------- awb ------------------
var (
	ErrNotConfirmed     = errors.New("operation not confirmed")
	ErrNoActiveCourier  = errors.New("no active courier account")
	ErrNoEligibleOrders = errors.New("no orders eligible for awb")
	ErrOrderNotLoaded   = errors.New("order is not in the loaded list")
)

// ----------------- sync ------------------
var ErrMonitorClosed = errors.New("sync monitor is closed")
