package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{name: "Missing status treated as pending", status: "", expected: StatusPending},
		{name: "Pending stays pending", status: StatusPending, expected: StatusPending},
		{name: "Quoted stays quoted", status: StatusQuoted, expected: StatusQuoted},
		{name: "Accepted stays accepted", status: StatusAccepted, expected: StatusAccepted},
		{name: "Rejected stays rejected", status: StatusRejected, expected: StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := CustomOrder{Status: tt.status}
			assert.Equal(t, tt.expected, order.NormalizedStatus())
		})
	}
}

func TestDisplayModelType(t *testing.T) {
	tests := []struct {
		name      string
		modelType string
		expected  string
	}{
		{name: "Known type renders as-is", modelType: "llavero", expected: "llavero"},
		{name: "Missing type renders as unspecified", modelType: "", expected: "unspecified"},
		{name: "Unknown type renders as unspecified", modelType: "escultura", expected: "unspecified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := CustomOrder{ModelType: tt.modelType}
			assert.Equal(t, tt.expected, order.DisplayModelType())
		})
	}
}

func TestIsValidModelType(t *testing.T) {
	assert.True(t, IsValidModelType("llavero"))
	assert.True(t, IsValidModelType("cuadro_pequeno"))
	assert.True(t, IsValidModelType("cuadro_grande"))
	assert.False(t, IsValidModelType(""))
	assert.False(t, IsValidModelType("LLAVERO"))
	assert.False(t, IsValidModelType("taza"))
}

func TestNextDeliveryStatus(t *testing.T) {
	// The forward path walks the whole graph in order
	path := []string{
		DeliveryStatusPaid,
		DeliveryStatusScheduled,
		DeliveryStatusConfirmed,
		DeliveryStatusReadyForDelivery,
		DeliveryStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		next, ok := NextDeliveryStatus(path[i])
		assert.True(t, ok, "expected a transition from %s", path[i])
		assert.Equal(t, path[i+1], next)
	}

	// Terminal and out-of-track states have no forward transition
	for _, status := range []string{DeliveryStatusDelivered, DeliveryStatusCancelled, ""} {
		_, ok := NextDeliveryStatus(status)
		assert.False(t, ok, "expected no transition from %q", status)
	}
}

func TestIsTerminalDeliveryStatus(t *testing.T) {
	assert.True(t, IsTerminalDeliveryStatus(DeliveryStatusDelivered))
	assert.True(t, IsTerminalDeliveryStatus(DeliveryStatusCancelled))
	assert.False(t, IsTerminalDeliveryStatus(DeliveryStatusPaid))
	assert.False(t, IsTerminalDeliveryStatus(DeliveryStatusReadyForDelivery))
}
