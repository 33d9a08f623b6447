package template

import "github.com/garageops/workshop-notify/internal/model"

// Built-in default copy used when no stored template matches the event.
// Each default embeds the same subject/customer/status fields; asterisks
// are the host provider's bold markers.
var defaultBodies = map[model.EventType]string{
	model.EventVehicleCreated:       "New vehicle *{{vehicleNumber}}* registered for {{customerName}}.",
	model.EventStatusChanged:        "Vehicle *{{vehicleNumber}}* ({{customerName}}) moved to *{{status}}*.",
	model.EventInstallationComplete: "Installation complete for vehicle *{{vehicleNumber}}* ({{customerName}}). Status: {{status}}.",
	model.EventInvoiceIssued:        "Invoice issued for vehicle *{{vehicleNumber}}* ({{customerName}}).",
	model.EventPaymentReceived:      "Payment received for vehicle *{{vehicleNumber}}* ({{customerName}}).",
}

const genericBody = "Update for vehicle *{{vehicleNumber}}* ({{customerName}}): {{status}}"

func defaultBody(event model.EventType) string {
	if body, ok := defaultBodies[event]; ok {
		return body
	}
	return genericBody
}
