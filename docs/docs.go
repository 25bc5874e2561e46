// Package docs registers the OpenAPI template served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.StatusResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httpgin.StatusResponse"}}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "summary": "Get event",
                "parameters": [{"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Event"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/events/{id}/availability": {
            "get": {
                "summary": "Get availability counters",
                "parameters": [{"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EventCounts"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/events/{id}/bookings": {
            "get": {
                "summary": "List bookings of an event",
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "confirmed|cancelled|attended|no-show", "name": "booking_status", "in": "query"},
                    {"type": "string", "description": "pending|completed|failed|refunded", "name": "payment_status", "in": "query"},
                    {"type": "integer", "description": "page, from 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BookingPage"}}
                }
            },
            "post": {
                "summary": "Reserve tickets (idempotent)",
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.ReserveRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Booking"}, "headers": {"Idempotency-Key": {"type": "string", "description": "echo"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "not enough tickets / idem in progress", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "422": {"description": "unknown type / order limit / not bookable", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/events/{id}/bookings/stats": {
            "get": {
                "summary": "Booking statistics of an event",
                "parameters": [{"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BookingStats"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/checkin": {
            "post": {
                "summary": "Check in by booking reference",
                "parameters": [{"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CheckInRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "409": {"description": "already checked in", "schema": {"$ref": "#/definitions/httpgin.AlreadyCheckedInResponse"}},
                    "422": {"description": "payment not completed", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/reference/{reference}": {
            "get": {
                "summary": "Get booking by reference",
                "parameters": [{"type": "string", "description": "Booking reference", "name": "reference", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "summary": "Get booking",
                "parameters": [{"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "post": {
                "summary": "Cancel booking and release its tickets",
                "parameters": [
                    {"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CancelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/{id}/payment/intent": {
            "post": {
                "summary": "Create mock payment intent",
                "parameters": [{"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.PaymentIntent"}},
                    "409": {"description": "payment already completed", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/{id}/payment/confirm": {
            "post": {
                "summary": "Confirm payment",
                "parameters": [
                    {"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.ConfirmPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/{id}/payment/fail": {
            "post": {
                "summary": "Mark payment failed",
                "parameters": [{"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/bookings/{id}/refund": {
            "post": {
                "summary": "Refund a cancelled, paid booking",
                "parameters": [{"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/users/{id}/bookings": {
            "get": {
                "summary": "List bookings of a user",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "page, from 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BookingPage"}}}
            }
        },
        "/users/{id}/payments": {
            "get": {
                "summary": "Payment history of a user",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "page, from 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BookingPage"}}}
            }
        },
        "/organizers/{id}/bookings": {
            "get": {
                "summary": "List bookings of an organizer's events",
                "parameters": [
                    {"type": "integer", "description": "Organizer ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "page, from 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.BookingPage"}}}
            }
        },
        "/organizers/{id}/earnings": {
            "get": {
                "summary": "Earnings of an organizer",
                "parameters": [
                    {"type": "integer", "description": "Organizer ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "RFC3339 lower bound on booking creation", "name": "from", "in": "query"},
                    {"type": "string", "description": "RFC3339 upper bound on booking creation", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Earnings"}}}
            }
        },
        "/admin/events": {
            "post": {
                "summary": "Create event with ticket types",
                "parameters": [{"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateEventRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Event"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/events/{id}/status": {
            "patch": {
                "summary": "Set event status and publication",
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.SetEventStatusRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Booking": {"type": "object"},
        "domain.BookingPage": {"type": "object"},
        "domain.BookingStats": {"type": "object"},
        "domain.Earnings": {"type": "object"},
        "domain.Event": {"type": "object"},
        "domain.EventCounts": {"type": "object"},
        "domain.PaymentIntent": {"type": "object"},
        "httpgin.AlreadyCheckedInResponse": {
            "type": "object",
            "properties": {
                "booking": {"$ref": "#/definitions/domain.Booking"},
                "check_in_time": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "httpgin.CancelRequest": {
            "type": "object",
            "required": ["cancellation_reason"],
            "properties": {"cancellation_reason": {"type": "string"}}
        },
        "httpgin.CheckInRequest": {
            "type": "object",
            "required": ["booking_reference"],
            "properties": {"booking_reference": {"type": "string"}}
        },
        "httpgin.ConfirmPaymentRequest": {
            "type": "object",
            "required": ["transaction_id"],
            "properties": {"transaction_id": {"type": "string"}}
        },
        "httpgin.CreateEventRequest": {
            "type": "object",
            "required": ["organizer_id", "starts_at", "ticket_types", "title"],
            "properties": {
                "is_published": {"type": "boolean"},
                "organizer_id": {"type": "integer"},
                "starts_at": {"type": "string"},
                "status": {"type": "string"},
                "ticket_types": {"type": "array", "items": {"$ref": "#/definitions/httpgin.TicketTypeRequest"}},
                "title": {"type": "string"}
            }
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "httpgin.ReserveRequest": {
            "type": "object",
            "required": ["tickets", "user_id"],
            "properties": {
                "attendee_info": {
                    "type": "object",
                    "required": ["email", "name", "phone"],
                    "properties": {
                        "email": {"type": "string"},
                        "name": {"type": "string"},
                        "phone": {"type": "string", "minLength": 10}
                    }
                },
                "notes": {"type": "string", "maxLength": 500},
                "payment_method": {"type": "string"},
                "tickets": {
                    "type": "array",
                    "minItems": 1,
                    "items": {
                        "type": "object",
                        "required": ["quantity", "ticket_type"],
                        "properties": {
                            "quantity": {"type": "integer"},
                            "ticket_type": {"type": "string"}
                        }
                    }
                },
                "user_id": {"type": "integer"}
            }
        },
        "httpgin.SetEventStatusRequest": {
            "type": "object",
            "required": ["is_published", "status"],
            "properties": {
                "is_published": {"type": "boolean"},
                "status": {"type": "string"}
            }
        },
        "httpgin.StatusResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "httpgin.TicketTypeRequest": {
            "type": "object",
            "required": ["name", "quantity"],
            "properties": {
                "description": {"type": "string"},
                "max_per_order": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "string"},
                "quantity": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "EventHub API",
	Description:      "Ticket inventory, reservations and booking lifecycle for events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
