// Package docs регистрирует описание API консоли для swagger UI
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/awb": {
            "get": {"tags": ["awb"], "summary": "Состояние экрана накладных", "responses": {"200": {"description": "OK"}}}
        },
        "/awb/orders": {
            "get": {
                "tags": ["awb"],
                "summary": "Загрузить заказы, ожидающие накладной",
                "parameters": [{"name": "account_type", "in": "query", "type": "string", "enum": ["main", "fbe"]}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Неверный аккаунт"}, "502": {"description": "Ошибка бэкенда"}}
            }
        },
        "/awb/couriers": {
            "get": {
                "tags": ["awb"],
                "summary": "Загрузить курьерские аккаунты",
                "parameters": [{"name": "account_type", "in": "query", "type": "string", "enum": ["main", "fbe"]}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Неверный аккаунт"}, "502": {"description": "Ошибка бэкенда"}}
            }
        },
        "/awb/orders/{id}/form": {
            "post": {
                "tags": ["awb"],
                "summary": "Открыть форму накладной для заказа",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Заказ не найден"}}
            }
        },
        "/awb/form": {
            "delete": {"tags": ["awb"], "summary": "Закрыть форму накладной", "responses": {"204": {"description": "Форма закрыта"}}}
        },
        "/awb/orders/{id}/generate": {
            "post": {
                "tags": ["awb"],
                "summary": "Создать накладную для заказа",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {"201": {"description": "Номер накладной"}, "400": {"description": "Ошибка проверки"}, "422": {"description": "Бэкенд отклонил данные"}, "502": {"description": "Ошибка бэкенда"}}
            }
        },
        "/awb/bulk-generate": {
            "post": {
                "tags": ["awb"],
                "summary": "Массово создать накладные для выбранных заказов",
                "parameters": [{"name": "confirm", "in": "query", "type": "boolean"}],
                "responses": {"200": {"description": "Итог массовой операции"}, "409": {"description": "Нет подходящих заказов"}, "428": {"description": "Требуется подтверждение"}}
            }
        },
        "/awb/track/{awb}": {
            "get": {
                "tags": ["awb"],
                "summary": "Отследить накладную",
                "parameters": [{"name": "awb", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "502": {"description": "Ошибка бэкенда"}}
            }
        },
        "/sync": {
            "get": {"tags": ["sync"], "summary": "Состояние мониторинга синхронизации", "responses": {"200": {"description": "OK"}}}
        },
        "/sync/refresh": {
            "post": {"tags": ["sync"], "summary": "Полное обновление снимка", "responses": {"200": {"description": "OK"}}}
        },
        "/sync/trigger/{kind}": {
            "post": {
                "tags": ["sync"],
                "summary": "Запустить синхронизацию",
                "parameters": [{"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["products", "offers", "orders"]}],
                "responses": {"202": {"description": "Запуск принят"}, "400": {"description": "Неизвестный вид"}}
            }
        },
        "/sync/realtime": {
            "put": {
                "tags": ["sync"],
                "summary": "Включить или выключить проверку доступности",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RealtimeRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Неверное тело запроса"}}
            }
        },
        "/sync/health": {
            "get": {"tags": ["sync"], "summary": "Проверить доступность бэкенда", "responses": {"200": {"description": "OK"}}}
        },
        "/sync/metrics": {
            "get": {"tags": ["sync"], "summary": "Метрики по истории запусков", "responses": {"200": {"description": "OK"}}}
        },
        "/sync/export/{syncID}": {
            "post": {
                "tags": ["sync"],
                "summary": "Сохранить выгрузку запуска в файл",
                "parameters": [{"name": "syncID", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Путь к файлу"}, "500": {"description": "Ошибка сохранения файла"}, "502": {"description": "Ошибка бэкенда"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["notifications"],
                "summary": "Последние уведомления",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {"tags": ["notifications"], "summary": "Очистить ленту уведомлений", "responses": {"204": {"description": "Лента очищена"}}}
        },
        "/audit": {
            "get": {
                "tags": ["audit"],
                "summary": "Журнал команд, отправленных в бэкенд",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Журнал отключен"}, "500": {"description": "Ошибка чтения журнала"}}
            }
        }
    },
    "definitions": {
        "GenerateRequest": {
            "type": "object",
            "required": ["courier_account_id"],
            "properties": {
                "courier_account_id": {"type": "integer"},
                "packages": {"type": "array", "items": {"$ref": "#/definitions/AWBPackage"}}
            }
        },
        "AWBPackage": {
            "type": "object",
            "properties": {
                "weight": {"type": "number"},
                "length": {"type": "number"},
                "width": {"type": "number"},
                "height": {"type": "number"}
            }
        },
        "RealtimeRequest": {
            "type": "object",
            "required": ["enabled"],
            "properties": {"enabled": {"type": "boolean"}}
        }
    }
}`

// SwaggerInfo - сведения об API, подставляемые в описание
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "eMAG Console API",
	Description:      "Операторская консоль eMAG: накладные, мониторинг синхронизации, уведомления.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
