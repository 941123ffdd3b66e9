// Package docs holds the generated OpenAPI document served at /swagger/.
// Regenerate with: swag init -g internal/platform/httpserver/server.go -o internal/platform/httpserver/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/rounds/{round_id}/finalize": {
            "post": {
                "tags": ["allocation"],
                "summary": "Finalize a round into a salted Merkle allocation commitment",
                "parameters": [
                    {"type": "string", "name": "round_id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/vaults/{vault_id}/commitment": {
            "get": {
                "tags": ["allocation"],
                "summary": "Fetch the Merkle commitment for a vault",
                "parameters": [
                    {"type": "string", "name": "vault_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/vaults/{vault_id}/proofs/{address}": {
            "get": {
                "tags": ["allocation"],
                "summary": "Fetch the inclusion proof for one address",
                "parameters": [
                    {"type": "string", "name": "vault_id", "in": "path", "required": true},
                    {"type": "string", "name": "address", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/vaults/{vault_id}/verify": {
            "post": {
                "tags": ["allocation"],
                "summary": "Verify an inclusion proof against the stored root",
                "parameters": [
                    {"type": "string", "name": "vault_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/rounds/{round_id}/schedule": {
            "post": {
                "tags": ["vesting"],
                "summary": "Create the vesting schedule for a finalized round",
                "parameters": [
                    {"type": "string", "name": "round_id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            },
            "get": {
                "tags": ["vesting"],
                "summary": "Fetch the vesting schedule for a round",
                "parameters": [
                    {"type": "string", "name": "round_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/rounds/{round_id}/status": {
            "get": {
                "tags": ["vesting"],
                "summary": "Fetch round result, vesting and lock status, and the success gate timestamp",
                "parameters": [
                    {"type": "string", "name": "round_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/schedules/{schedule_id}": {
            "get": {
                "tags": ["vesting"],
                "summary": "Fetch one vesting schedule",
                "parameters": [
                    {"type": "string", "name": "schedule_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/schedules/{schedule_id}/pause": {
            "post": {
                "tags": ["vesting"],
                "summary": "Pause a confirmed schedule",
                "parameters": [
                    {"type": "string", "name": "schedule_id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/schedules/{schedule_id}/resume": {
            "post": {
                "tags": ["vesting"],
                "summary": "Resume a paused schedule",
                "parameters": [
                    {"type": "string", "name": "schedule_id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/schedules/{schedule_id}/allocations/{address}": {
            "get": {
                "tags": ["vesting"],
                "summary": "Fetch the unlocked and claimable breakdown for one wallet",
                "parameters": [
                    {"type": "string", "name": "schedule_id", "in": "path", "required": true},
                    {"type": "string", "name": "address", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/schedules/{schedule_id}/claims": {
            "post": {
                "tags": ["vesting"],
                "summary": "Submit a claim against a confirmed schedule",
                "parameters": [
                    {"type": "string", "name": "schedule_id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "200": {"description": "Duplicate submission, existing record returned"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/claims/{claim_id}": {
            "get": {
                "tags": ["vesting"],
                "summary": "Fetch one claim",
                "parameters": [
                    {"type": "string", "name": "claim_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/allocations/{allocation_id}/claims": {
            "get": {
                "tags": ["vesting"],
                "summary": "List claims for one allocation",
                "parameters": [
                    {"type": "string", "name": "allocation_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "tokenvault API",
	Description:      "Allocation commitments, vesting schedules and the claim ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
