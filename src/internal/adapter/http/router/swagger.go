package router

import (
	"fmt"
	"net/http"
)

func registerSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	mux.HandleFunc("/swagger/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	mux.HandleFunc("/swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Bank Ledger API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Bank Ledger API",
    "version": "1.0.0"
  },
  "paths": {
    "/api/bank/v1/create": {
      "post": {
        "summary": "Create account",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["accountName", "accountPassword"],
                "properties": {
                  "accountName": {"type": "string"},
                  "accountPassword": {"type": "string", "format": "password"},
                  "accountBalance": {"type": "string", "example": "100.00"}
                }
              }
            }
          }
        },
        "responses": {
          "201": {"description": "Created"},
          "400": {"description": "Missing or invalid field"},
          "409": {"description": "Account already exists"},
          "422": {"description": "Invalid amount"},
          "503": {"description": "Store unavailable"}
        }
      }
    },
    "/api/bank/v1/deposit": {
      "post": {
        "summary": "Deposit into an account",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["accountName", "amount"],
                "properties": {
                  "accountName": {"type": "string"},
                  "amount": {"type": "string", "example": "20.00"}
                }
              }
            }
          }
        },
        "responses": {
          "200": {"description": "Deposit completed"},
          "400": {"description": "Missing or invalid field"},
          "404": {"description": "Account not found"},
          "409": {"description": "Account updated concurrently"},
          "422": {"description": "Invalid amount"},
          "503": {"description": "Store unavailable"}
        }
      }
    },
    "/api/bank/v1/transfer": {
      "post": {
        "summary": "Transfer from the authenticated account",
        "security": [
          {
            "BasicAuth": []
          }
        ],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["destinationAccountName", "amount"],
                "properties": {
                  "destinationAccountName": {"type": "string"},
                  "amount": {"type": "string", "example": "10.00"}
                }
              }
            }
          }
        },
        "responses": {
          "200": {"description": "Transfer successful"},
          "400": {"description": "Missing or invalid field"},
          "401": {"description": "Unauthorized"},
          "404": {"description": "Account not found"},
          "409": {"description": "Account updated concurrently"},
          "422": {"description": "Invalid amount or self transfer"},
          "503": {"description": "Store unavailable"}
        }
      }
    },
    "/api/bank/v1/account": {
      "get": {
        "summary": "Get the authenticated account",
        "security": [
          {
            "BasicAuth": []
          }
        ],
        "responses": {
          "200": {"description": "Account fetched"},
          "401": {"description": "Unauthorized"},
          "503": {"description": "Store unavailable"}
        }
      }
    },
    "/health": {
      "get": {
        "summary": "Liveness check",
        "responses": {
          "200": {"description": "Service is up"}
        }
      }
    }
  },
  "components": {
    "securitySchemes": {
      "BasicAuth": {
        "type": "http",
        "scheme": "basic"
      }
    }
  }
}`
