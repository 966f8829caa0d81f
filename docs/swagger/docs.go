// Package swagger 由 swag init -g cmd/tx-server/main.go -o docs/swagger 生成，修改接口注释后需重新生成
package swagger

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
        "/tx/decode": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tx"],
                "summary": "解析原始交易",
                "parameters": [
                    {"description": "Raw transaction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.RawTxRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/tx/encode": {
            "post": {
                "description": "将 JSON-RPC 形式的交易（可含 v/r/s）编码为原始字节",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tx"],
                "summary": "编码交易",
                "parameters": [
                    {"description": "Transaction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.TxRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/tx/prepare": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tx"],
                "summary": "补全默认字段，返回待签名交易",
                "parameters": [
                    {"description": "Transaction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.TxRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/tx/sign": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tx"],
                "summary": "使用服务端账户签名并进入广播队列",
                "parameters": [
                    {"description": "Transaction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.TxRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/tx/submit": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tx"],
                "summary": "提交外部签名的交易",
                "parameters": [
                    {"description": "Raw transaction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.RawTxRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/tx/{hash}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Tx"],
                "summary": "查询交易状态",
                "parameters": [
                    {"type": "string", "description": "Transaction hash", "name": "hash", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        }
    },
    "definitions": {
        "request.RawTxRequest": {
            "type": "object",
            "required": ["raw"],
            "properties": {"raw": {"type": "string"}}
        },
        "request.TxRequest": {
            "type": "object",
            "properties": {
                "accessList": {"type": "array", "items": {"type": "object"}},
                "blobVersionedHashes": {"type": "array", "items": {"type": "string"}},
                "chainId": {"type": "string"},
                "data": {"type": "string"},
                "from": {"type": "string"},
                "gas": {"type": "string"},
                "gasPrice": {"type": "string"},
                "input": {"type": "string"},
                "maxFeePerBlobGas": {"type": "string"},
                "maxFeePerGas": {"type": "string"},
                "maxPriorityFeePerGas": {"type": "string"},
                "nonce": {"type": "string"},
                "r": {"type": "string"},
                "s": {"type": "string"},
                "to": {"type": "string"},
                "type": {"type": "string"},
                "v": {"type": "string"},
                "value": {"type": "string"},
                "valueEther": {"type": "string"},
                "yParity": {"type": "string"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "msg": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Wallet Tx API",
	Description:      "Ethereum transaction encode / decode / prepare / sign / submit",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
