package models

import (
	"strings"
	"time"
)

// Нормализованные статусы отслеживания
const (
	TrackingStatusUnknown   = "UNKNOWN"
	TrackingStatusInTransit = "IN_TRANSIT"
	TrackingStatusDelivered = "DELIVERED"
	TrackingStatusReturned  = "RETURNED"
)

// TrackingEvent - отдельное событие в истории отправления
type TrackingEvent struct {
	Time     time.Time `json:"time"`
	Status   string    `json:"status"`
	Location string    `json:"location,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// TrackingSnapshot - снимок состояния отправления на момент запроса
type TrackingSnapshot struct {
	AWBNumber   string          `json:"awb_number"`
	CourierName string          `json:"courier_name,omitempty"`
	Status      string          `json:"status"`
	StatusRaw   string          `json:"status_raw,omitempty"`
	Events      []TrackingEvent `json:"events,omitempty"`
}

// NormalizeTrackingStatus приводит статус курьера к одному из нормализованных значений
func NormalizeTrackingStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return TrackingStatusUnknown
	case strings.Contains(s, "deliver") || strings.Contains(s, "livrat"):
		return TrackingStatusDelivered
	case strings.Contains(s, "return") || strings.Contains(s, "retur"):
		return TrackingStatusReturned
	case strings.Contains(s, "transit") || strings.Contains(s, "tranzit") || strings.Contains(s, "picked"):
		return TrackingStatusInTransit
	default:
		return TrackingStatusUnknown
	}
}
